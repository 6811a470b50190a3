package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"testdesk/internal/ingest"
	"testdesk/internal/questiondoc"
	"testdesk/internal/testapi"
)

var (
	submitName     string
	submitCategory string
	submitAPI      string
	submitQuota    int
	submitSeed     int64
	submitStrict   bool
	submitTimeout  time.Duration
)

var submitCmd = &cobra.Command{
	Use:   "submit [file]",
	Short: "Create a test from a question document",
	Long: `Parses a question document and submits the normalized questions to the
test API as a new test. The request is sent once and never retried.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitName, "name", "", "test name")
	submitCmd.Flags().StringVar(&submitCategory, "category", "", "test category")
	submitCmd.Flags().StringVar(&submitAPI, "api", testapi.DefaultBaseURL, "test API base URL")
	submitCmd.Flags().IntVarP(&submitQuota, "quota", "q", questiondoc.DefaultQuota, "maximum number of questions kept (0 keeps all)")
	submitCmd.Flags().Int64Var(&submitSeed, "seed", 0, "seed for question sampling (0 uses the clock)")
	submitCmd.Flags().BoolVar(&submitStrict, "strict", false, "also reject questions that do not survive a serialize/parse round trip")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 15*time.Second, "request timeout")
	_ = submitCmd.MarkFlagRequired("name")
	_ = submitCmd.MarkFlagRequired("category")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	in, err := readInput(cmd, args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	svc := ingest.NewService(ingest.ServiceConfig{
		Parser: questiondoc.New(parserConfig(submitQuota, submitSeed, submitStrict)),
		Client: testapi.NewClient(testapi.Config{BaseURL: submitAPI, Timeout: submitTimeout}),
	})
	rec, err := svc.CreateTest(context.Background(), ingest.CreateTestInput{
		TestName:     submitName,
		CategoryName: submitCategory,
		ImportInput:  in,
	})
	if rec != nil {
		printSkips(cmd, rec.Skipped)
	}
	if err != nil {
		var status *testapi.StatusError
		if errors.As(err, &status) {
			return fmt.Errorf("test api returned %d: %s", status.StatusCode, status.Body)
		}
		return fmt.Errorf("submit failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created test %q in %s with %d question(s)\n", rec.TestName, rec.CategoryName, rec.SubmittedCount)
	if rec.RemoteResponse != "" {
		fmt.Fprintln(cmd.OutOrStdout(), rec.RemoteResponse)
	}
	return nil
}

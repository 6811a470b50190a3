package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"testdesk/internal/ingest"
	"testdesk/internal/questiondoc"
)

var (
	parseQuota  int
	parseSeed   int64
	parseStrict bool
	parseJSON   bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Normalize a question document",
	Long: `Parses a question document and prints the normalized questions, one
per line. Skipped questions are reported on stderr. Use "-" to read plain
text from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().IntVarP(&parseQuota, "quota", "q", questiondoc.DefaultQuota, "maximum number of questions kept (0 keeps all)")
	parseCmd.Flags().Int64Var(&parseSeed, "seed", 0, "seed for question sampling (0 uses the clock)")
	parseCmd.Flags().BoolVar(&parseStrict, "strict", false, "also reject questions that do not survive a serialize/parse round trip")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "output the full parse result as JSON")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	in, err := readInput(cmd, args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	svc := ingest.NewService(ingest.ServiceConfig{
		Parser: questiondoc.New(parserConfig(parseQuota, parseSeed, parseStrict)),
	})
	preview, err := svc.Preview(context.Background(), in)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	if parseJSON {
		data, err := json.MarshalIndent(preview, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		if preview.Text == "" {
			return ingest.ErrNoValidQuestions
		}
		return nil
	}

	if preview.Text != "" {
		fmt.Fprintln(cmd.OutOrStdout(), preview.Text)
	}
	printSkips(cmd, preview.Skipped)
	if preview.Text == "" {
		return ingest.ErrNoValidQuestions
	}
	return nil
}

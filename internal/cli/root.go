// Package cli implements the qdoc command line tool.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"testdesk/internal/ingest"
	"testdesk/internal/questiondoc"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "qdoc",
	Short: "Parse question documents and create tests from them",
	Long: `qdoc reads question documents (plain text, .docx, .xlsx or a
YAML/JSON/TOML question bank), normalizes every valid question into the
one-line Question(a,b,c,d)[answer] form and optionally submits the result
to the test API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by qdoc version.
func SetVersion(v string) {
	version = v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("qdoc version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// readInput loads the document named by path. "-" reads plain text from stdin.
func readInput(cmd *cobra.Command, path string) (ingest.ImportInput, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return ingest.ImportInput{}, err
		}
		return ingest.ImportInput{FileName: "stdin.txt", FileData: data}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ingest.ImportInput{}, err
	}
	return ingest.ImportInput{FileName: filepath.Base(path), FileData: data}, nil
}

func parserConfig(quota int, seed int64, strict bool) questiondoc.Config {
	cfg := questiondoc.Config{Quota: quota, Strict: strict}
	if seed != 0 {
		cfg.Rand = questiondoc.NewRand(seed)
	}
	return cfg
}

func printSkips(cmd *cobra.Command, skips []questiondoc.Skip) {
	if len(skips) == 0 {
		return
	}
	cmd.PrintErrf("skipped %d question(s):\n", len(skips))
	for _, s := range skips {
		cmd.PrintErrf("  line %d: %s (%s)\n", s.Line, s.Message, s.Reason)
	}
}

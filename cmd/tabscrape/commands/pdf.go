package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tabscrape/pkg/extract"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf <file>",
	Short: "Extract the tables of a PDF file",
	Long: `Extract the tables of a PDF file, page by page.

Tables are found from the alignment of words on each page. When the file
cannot be read that way, a plain-text heuristic splits lines on pipes, tabs
or runs of spaces instead. Scanned PDFs without a text layer yield nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		return runExtraction(cmd, func(ctx context.Context, ext *extract.Extractor) (*extract.Result, error) {
			data, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads user-specified input file
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return ext.FromPDFNamed(ctx, filepath.Base(path), data)
		})
	},
}

func init() {
	rootCmd.AddCommand(pdfCmd)
	addExtractFlags(pdfCmd)
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tabscrape/pkg/extract"
)

var htmlCmd = &cobra.Command{
	Use:   "html <file|->",
	Short: "Extract the tables of a local HTML file",
	Long:  `Extract every table of a saved HTML document. Use - to read from stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		return runExtraction(cmd, func(ctx context.Context, ext *extract.Extractor) (*extract.Result, error) {
			var r io.Reader = cmd.InOrStdin()
			name := "stdin"
			if path != "-" {
				f, err := os.Open(path) //#nosec G304 -- CLI tool reads user-specified input file
				if err != nil {
					return nil, fmt.Errorf("failed to open %s: %w", path, err)
				}
				defer func() { _ = f.Close() }()
				r, name = f, filepath.Base(path)
			}
			return ext.FromHTML(ctx, name, r)
		})
	},
}

func init() {
	rootCmd.AddCommand(htmlCmd)
	addExtractFlags(htmlCmd)
}

package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tabscrape/pkg/extract"
)

var urlCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Extract the tables of a web page",
	Long: `Fetch a web page and extract every HTML table on it, in document order.

A URL without a scheme is fetched over https. Pages that build their tables
with JavaScript need --fetch-mode dynamic (or auto), which uses headless Chrome.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtraction(cmd, func(ctx context.Context, ext *extract.Extractor) (*extract.Result, error) {
			return ext.FromURL(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(urlCmd)
	addExtractFlags(urlCmd)
}

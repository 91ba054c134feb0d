package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/tabscrape/internal/config"
	"github.com/jmylchreest/tabscrape/internal/logger"
	"github.com/jmylchreest/tabscrape/internal/output"
	"github.com/jmylchreest/tabscrape/internal/picker"
	"github.com/jmylchreest/tabscrape/pkg/export"
	"github.com/jmylchreest/tabscrape/pkg/extract"
	"github.com/jmylchreest/tabscrape/pkg/fetcher"
)

// extractFlagKeys maps extraction flags to config keys.
var extractFlagKeys = map[string]string{
	"format":     "format",
	"timeout":    "timeout",
	"user-agent": "user_agent",
	"fetch-mode": "fetch_mode",
}

// addExtractFlags registers the flags shared by url, pdf and html.
func addExtractFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	// Output settings
	flags.StringP("format", "f", string(output.FormatPreview), "output format: preview, xlsx, csv, json, jsonl, yaml")
	flags.StringP("output", "o", "", "output file (default stdout; xlsx defaults to scraped_tables_<source>.xlsx)")
	flags.String("select", "", "tables to keep by 1-based index, e.g. 1,3 or 2-4 (default all)")
	flags.BoolP("interactive", "i", false, "choose tables interactively before writing")
	flags.Bool("compact", false, "write JSON on a single line")

	// Fetch settings
	flags.String("fetch-mode", string(fetcher.ModeStatic), "fetch mode: static, dynamic, auto")
	flags.Duration("timeout", fetcher.DefaultTimeout, "request timeout")
	flags.String("user-agent", fetcher.DefaultUserAgent, "HTTP user agent")
}

// extractFunc runs one extraction with a configured extractor.
type extractFunc func(ctx context.Context, ext *extract.Extractor) (*extract.Result, error)

func runExtraction(cmd *cobra.Command, run extractFunc) error {
	bindFlags(cmd.Flags(), extractFlagKeys)
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ext, err := newExtractor(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = ext.Close() }()

	result, err := run(ctx, ext)
	if err != nil {
		return err
	}

	if result.Empty() {
		logInfo("No tables found in %s", result.Source)
		return nil
	}
	logInfo("Found %d table(s) in %s", len(result.Tables), result.Source)
	if n := len(result.Warnings); n > 0 {
		logInfo("%d region(s) skipped, see warnings above", n)
	}

	indices, err := selection(cmd, result)
	if err != nil {
		if errors.Is(err, picker.ErrCancelled) {
			logInfo("Selection cancelled, nothing written")
			return nil
		}
		return err
	}

	sheets, err := export.Select(result.Tables, indices)
	if err != nil {
		return err
	}
	if len(sheets) == 0 {
		logInfo("No tables selected, nothing written")
		return nil
	}

	outPath, _ := cmd.Flags().GetString("output")
	compact, _ := cmd.Flags().GetBool("compact")
	return writeSheets(cmd.OutOrStdout(), output.Format(cfg.Format), outPath, result.Source, sheets, cfg.PreviewRows,
		output.WithPretty(!compact))
}

func newExtractor(cfg config.Config) (*extract.Extractor, error) {
	logger.Debug("creating extractor",
		"fetch_mode", cfg.FetchMode,
		"timeout", cfg.Timeout)

	return extract.New(
		extract.WithFetchMode(fetcher.Mode(cfg.FetchMode)),
		extract.WithTimeout(cfg.Timeout),
		extract.WithUserAgent(cfg.UserAgent),
	)
}

// selection returns the 1-based table indices to write, from --select or
// the interactive picker.
func selection(cmd *cobra.Command, result *extract.Result) ([]int, error) {
	spec, _ := cmd.Flags().GetString("select")
	indices, err := parseSelect(spec)
	if err != nil {
		return nil, err
	}

	interactive, _ := cmd.Flags().GetBool("interactive")
	if !interactive {
		return indices, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("--interactive needs a terminal")
	}
	return picker.Run("Tables in "+result.Source, result.Tables, os.Stdin, os.Stderr)
}

// parseSelect parses "1,3" or "2-4,7" into 1-based indices in order.
func parseSelect(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	var out []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid table index %q", part)
		}
		to := from
		if isRange {
			if to, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || to < from {
				return nil, fmt.Errorf("invalid table range %q", part)
			}
		}
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
	}
	return out, nil
}

// writeSheets writes the selected tables in format to outPath, or to stdout.
// A workbook is never written to stdout unless it is redirected.
func writeSheets(stdout io.Writer, format output.Format, outPath, source string, sheets []export.Sheet, previewRows int, opts ...output.WriterOption) error {
	if format.Binary() && outPath == "" {
		if f, ok := stdout.(*os.File); !ok || term.IsTerminal(int(f.Fd())) {
			outPath = export.DefaultFilename(source)
		}
	}

	out := stdout
	if outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	opts = append([]output.WriterOption{output.WithPreviewRows(previewRows)}, opts...)
	writer, err := output.NewWriter(out, format, opts...)
	if err != nil {
		return err
	}
	for _, s := range sheets {
		if err := writer.Write(s.Index, s.Table); err != nil {
			return fmt.Errorf("failed to write table %d: %w", s.Index, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if outPath != "" {
		logInfo("Wrote %d table(s) to %s", len(sheets), outPath)
	}
	return nil
}

// Package output handles output formatting and writing of extracted tables.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/tabscrape/pkg/table"
)

// Format represents output format types.
type Format string

const (
	FormatJSON    Format = "json"
	FormatJSONL   Format = "jsonl"
	FormatYAML    Format = "yaml"
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatPreview Format = "preview"
)

// Formats lists every supported format.
var Formats = []Format{FormatPreview, FormatXLSX, FormatCSV, FormatJSON, FormatJSONL, FormatYAML}

// Binary reports whether the format must not be written to a terminal.
func (f Format) Binary() bool {
	return f == FormatXLSX
}

// Writer handles output serialization.
type Writer interface {
	// Write outputs one table. index is the table's 1-based position in the
	// extraction result, so selections keep their original numbering.
	Write(index int, t table.Table) error

	// Flush ensures all data is written.
	Flush() error

	// Close releases resources.
	Close() error
}

// Document is the serialized form of a table in JSON, JSONL and YAML output.
type Document struct {
	Table   int         `json:"table" yaml:"table"`
	Source  string      `json:"source,omitempty" yaml:"source,omitempty"`
	Columns []string    `json:"columns" yaml:"columns"`
	Rows    []table.Row `json:"rows" yaml:"rows"`
}

func newDocument(index int, t table.Table) Document {
	return Document{Table: index, Source: t.Source, Columns: t.Columns, Rows: t.Rows}
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty      bool
	indent      string
	previewRows int
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// WithPreviewRows sets how many rows the preview shows per table.
func WithPreviewRows(n int) WriterOption {
	return func(c *writerConfig) {
		c.previewRows = n
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty:      true,
		indent:      "  ",
		previewRows: DefaultPreviewRows,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatCSV:
		return NewCSVWriter(w), nil
	case FormatXLSX:
		return NewXLSXWriter(w), nil
	case FormatPreview:
		return NewPreviewWriter(w, cfg.previewRows), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Package export writes extracted tables to an xlsx workbook.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jmylchreest/tabscrape/pkg/table"
)

// ContentType is the MIME type of an xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrNoSheets is returned when a workbook would have no sheets.
var ErrNoSheets = errors.New("no tables selected")

// Sheet pairs a table with the sheet label it is written under. Index is
// the table's 1-based position in the extraction result.
type Sheet struct {
	Index int
	Label string
	Table table.Table
}

// SheetName returns the sheet label for the table at 1-based position index.
func SheetName(index int) string {
	return fmt.Sprintf("Table_%d", index)
}

// Select picks tables by 1-based index and labels each sheet with the
// table's original position. An empty selection picks every table. Indices
// out of range are an error; duplicates are ignored.
func Select(tables []table.Table, indices []int) ([]Sheet, error) {
	if len(indices) == 0 {
		sheets := make([]Sheet, len(tables))
		for i, t := range tables {
			sheets[i] = Sheet{Index: i + 1, Label: SheetName(i + 1), Table: t}
		}
		return sheets, nil
	}

	seen := make(map[int]bool, len(indices))
	sheets := make([]Sheet, 0, len(indices))
	for _, idx := range indices {
		if idx < 1 || idx > len(tables) {
			return nil, fmt.Errorf("table %d out of range (1-%d)", idx, len(tables))
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		sheets = append(sheets, Sheet{Index: idx, Label: SheetName(idx), Table: tables[idx-1]})
	}
	return sheets, nil
}

// Workbook builds a workbook with one sheet per entry, header row on top.
func Workbook(sheets []Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Label); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Label); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", s.Label, err)
		}

		for r, record := range s.Table.Records() {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				f.Close()
				return nil, err
			}
			row := make([]interface{}, len(record))
			for c, v := range record {
				row[c] = v
			}
			if err := f.SetSheetRow(s.Label, cell, &row); err != nil {
				f.Close()
				return nil, fmt.Errorf("write %s row %d: %w", s.Label, r+1, err)
			}
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write writes the workbook for sheets to w.
func Write(w io.Writer, sheets []Sheet) error {
	f, err := Workbook(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Bytes returns the workbook for sheets as xlsx bytes.
func Bytes(sheets []Sheet) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, sheets); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DefaultFilename returns the download name for tables extracted from
// source, e.g. "scraped_tables_example_com.xlsx".
func DefaultFilename(source string) string {
	name := source
	for _, prefix := range []string{"https://", "http://"} {
		name = strings.TrimPrefix(name, prefix)
	}
	name = strings.NewReplacer(".", "_", "/", "_", ":", "_", "?", "_", "&", "_", "=", "_").Replace(name)
	name = strings.Trim(name, "_")
	if name == "" {
		name = "export"
	}
	return "scraped_tables_" + name + ".xlsx"
}

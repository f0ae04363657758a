// Package tabular answers natural-language questions about uploaded
// spreadsheet and CSV files. The files are never indexed; every query
// parses the live file so edits are always visible.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
)

// xlsx files are zip archives; the extension can lie, the magic bytes
// do not.
var zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// Dataset is one parsed tabular file: a header row and data rows, all
// as strings.
type Dataset struct {
	Columns []string
	Rows    [][]string
	Format  string
}

// Parse sniffs the payload format and decodes it. The extension is a
// hint only; the zip magic wins for spreadsheets saved under a .csv
// name and vice versa.
func Parse(raw []byte, extension string) (*Dataset, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty file")
	}

	if bytes.HasPrefix(raw, zipMagic) {
		return parseExcel(raw)
	}
	switch strings.ToLower(extension) {
	case ".xlsx", ".xls":
		return parseExcel(raw)
	default:
		return parseCSV(raw)
	}
}

func parseCSV(raw []byte) (*Dataset, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv has no rows")
	}
	return &Dataset{
		Columns: records[0],
		Rows:    records[1:],
		Format:  "csv",
	}, nil
}

func parseExcel(raw []byte) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errors.New("excel sheet is empty")
	}
	return &Dataset{
		Columns: rows[0],
		Rows:    rows[1:],
		Format:  "excel",
	}, nil
}

func (d *Dataset) Summary() domain.DataSummary {
	return domain.DataSummary{
		Rows:        len(d.Rows),
		Columns:     len(d.Columns),
		ColumnNames: append([]string(nil), d.Columns...),
	}
}

// Render writes the dataset as a pipe-delimited table, capped at
// maxRows data rows. It is the representation handed to the model.
func (d *Dataset) Render(maxRows int) string {
	var b strings.Builder
	writeRow(&b, d.Columns)

	rows := d.Rows
	truncated := false
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
		truncated = true
	}
	for _, row := range rows {
		writeRow(&b, row)
	}
	if truncated {
		fmt.Fprintf(&b, "... (%d more rows)\n", len(d.Rows)-maxRows)
	}
	return b.String()
}

func writeRow(w io.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			fmt.Fprint(w, " | ")
		}
		fmt.Fprint(w, strings.TrimSpace(cell))
	}
	fmt.Fprintln(w)
}

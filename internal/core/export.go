package core

// export.go serializes a working table for download.
//
// All writers take an explicit, order-preserving column subset. An empty
// subset is an error, never "all columns".

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DefaultExportName is the base file name offered for downloads.
const DefaultExportName = "merged_output"

// ExportFormat selects the download serialization.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat maps a format name to an ExportFormat, defaulting to CSV.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// ExportFileName returns name with the format's extension, falling back to
// DefaultExportName when name is blank.
func ExportFileName(name string, format ExportFormat) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultExportName
	}
	ext := "." + string(format)
	if format == "" {
		ext = ".csv"
	}
	if !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	return name
}

// SelectForExport projects the chosen columns, refusing an empty selection.
func SelectForExport(t *Table, columns []string) (*Table, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumnsChosen
	}
	return t.Select(columns)
}

// WriteCSV writes the selected columns with a header row.
func WriteCSV(w io.Writer, t *Table, columns []string) error {
	sel, err := SelectForExport(t, columns)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(sel.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, sel.NumColumns())
	for i := 0; i < sel.NumRows(); i++ {
		for j, c := range sel.columns {
			record[j] = FormatValue(c.Values[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the selected columns to a single-sheet workbook.
// Dates are written as text; other values keep their cell types.
func WriteXLSX(w io.Writer, t *Table, columns []string) error {
	sel, err := SelectForExport(t, columns)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open sheet: %w", err)
	}

	header := make([]interface{}, sel.NumColumns())
	for j, name := range sel.ColumnNames() {
		header[j] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < sel.NumRows(); i++ {
		row := make([]interface{}, sel.NumColumns())
		for j, c := range sel.columns {
			switch v := c.Values[i].(type) {
			case time.Time:
				row[j] = FormatValue(v)
			default:
				row[j] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}

// Write dispatches to the writer for format.
func (f ExportFormat) Write(w io.Writer, t *Table, columns []string) error {
	if f == FormatXLSX {
		return WriteXLSX(w, t, columns)
	}
	return WriteCSV(w, t, columns)
}

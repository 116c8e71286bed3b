package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// ContextCheckInterval is how often, in rows, loading checks for cancellation.
var ContextCheckInterval = 1000

// LoadOptions controls how an uploaded file becomes a Source.
type LoadOptions struct {
	// Sheet selects a workbook sheet; empty means the first sheet.
	Sheet string

	// RequiredColumns are cleaned: rows with no value there are dropped.
	RequiredColumns []string
}

// LoadFile parses an uploaded file into an unregistered Source.
// The format is chosen by extension: .csv/.txt are delimited text,
// .xlsx/.xlsm are workbooks.
func LoadFile(ctx context.Context, fileName string, data []byte, opts LoadOptions) (*Source, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", fileName, ErrEmptyFile)
	}

	var (
		records [][]string
		sheet   string
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv", ".txt":
		records, err = readCSV(data)
	case ".xlsx", ".xlsm":
		records, sheet, err = readSheet(data, opts.Sheet)
	case ".xls":
		return nil, fmt.Errorf("%s: legacy .xls workbooks must be saved as .xlsx: %w", fileName, ErrUnsupportedFile)
	default:
		return nil, fmt.Errorf("%s: %w %q", fileName, ErrUnsupportedFile, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}

	table, err := buildTable(ctx, fileName, records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}

	table, dropped := DropRowsMissing(table, opts.RequiredColumns)
	if table.NumRows() == 0 {
		return nil, fmt.Errorf("%s: no rows left after cleaning: %w", fileName, ErrEmptyFile)
	}

	return &Source{
		FileName:    fileName,
		Sheet:       sheet,
		Table:       table,
		Fingerprint: Fingerprint(data),
		Dropped:     dropped,
	}, nil
}

// SheetNames lists the sheets of an xlsx workbook in workbook order.
func SheetNames(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(DecodeForParsing(bytes.NewReader(data)))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("invalid csv at line %d: %w", pe.Line, pe.Err)
		}
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return records, nil
}

func readSheet(data []byte, sheet string) ([][]string, string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("invalid workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", fmt.Errorf("workbook has no sheets: %w", ErrEmptyFile)
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, "", fmt.Errorf("sheet not found: %q", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, sheet, nil
}

// buildTable turns header + data records into a typed table. Blank rows are
// skipped; short rows are padded with empty cells.
func buildTable(ctx context.Context, name string, records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	header := records[0]
	width := len(header)
	var data [][]string
	for i, rec := range records[1:] {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isEmptyRow(rec) {
			continue
		}
		if len(rec) > width {
			width = len(rec)
		}
		data = append(data, rec)
	}
	if width == 0 {
		return nil, fmt.Errorf("no columns: %w", ErrEmptyFile)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no data rows: %w", ErrEmptyFile)
	}

	columns := make([]*Column, width)
	cells := make([]string, len(data))
	for j := 0; j < width; j++ {
		for i, rec := range data {
			cells[i] = ""
			if j < len(rec) {
				cells[i] = CleanCell(rec[j])
			}
		}
		kind := inferKind(cells)
		values := make([]any, len(data))
		for i, c := range cells {
			values[i] = convertCell(c, kind)
		}
		columns[j] = &Column{Name: headerName(header, j), Values: values}
	}
	return NewTable(name, columns...)
}

// headerName trims and NFC-normalizes a header cell; blank headers are
// named after their position.
func headerName(header []string, j int) string {
	if j < len(header) {
		if h := strings.TrimSpace(norm.NFC.String(CleanCell(header[j]))); h != "" {
			return h
		}
	}
	return fmt.Sprintf("Unnamed: %d", j)
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

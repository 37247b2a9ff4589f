package source

import (
	"context"
	"path/filepath"
	"strings"
)

// Table is a header-keyed tabular extract
type Table struct {
	Name    string
	Headers []string
	Rows    []map[string]string

	// SkippedRows counts source rows dropped for a field count mismatch
	SkippedRows int
}

// Column returns the values of one column in row order
func (t *Table) Column(header string) []string {
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[header]
	}
	return values
}

// Source supplies a table from some storage
type Source interface {
	Load(ctx context.Context) (*Table, error)
}

// Open picks a file source from the path extension: .csv files are read as
// CSV, everything else as an xlsx workbook sheet.
func Open(path, sheet string) Source {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return NewCSVSource(path)
	}
	return NewXLSXSource(path, sheet)
}

// newTable builds a table from a header row and data rows. Rows shorter
// than the header are padded with empty cells; extra cells are dropped.
func newTable(name string, header []string, data [][]string) *Table {
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]map[string]string, 0, len(data))
	for _, cells := range data {
		row := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(cells) {
				row[h] = cells[j]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return &Table{Name: name, Headers: headers, Rows: rows}
}

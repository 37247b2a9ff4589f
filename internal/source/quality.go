package source

import (
	"fmt"
	"log/slog"
	"strings"
)

// QualityReport summarises the completeness of a table
type QualityReport struct {
	Table          string
	Rows           int
	Columns        int
	Cells          int
	EmptyCells     int
	EmptyPct       string
	MissingColumns []string
	DuplicateRows  int
	SkippedRows    int
}

// CheckQuality inspects t and logs warnings for missing required columns,
// skipped rows and duplicate rows
func CheckQuality(t *Table, logger *slog.Logger) QualityReport {
	report := QualityReport{
		Table:       t.Name,
		Rows:        len(t.Rows),
		Columns:     len(t.Headers),
		EmptyPct:    "N/A",
		SkippedRows: t.SkippedRows,
	}
	report.Cells = report.Rows * report.Columns

	present := make(map[string]bool, len(t.Headers))
	for _, h := range t.Headers {
		present[NormalizeHeader(h)] = true
	}
	for _, c := range RequiredColumns {
		if !present[c] {
			report.MissingColumns = append(report.MissingColumns, c)
		}
	}

	seen := make(map[string]bool, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			v := row[h]
			if strings.TrimSpace(v) == "" {
				report.EmptyCells++
			}
			cells[i] = v
		}
		key := strings.Join(cells, "\x1f")
		if seen[key] {
			report.DuplicateRows++
		}
		seen[key] = true
	}
	if report.Cells > 0 {
		report.EmptyPct = fmt.Sprintf("%.2f%%", float64(report.EmptyCells)/float64(report.Cells)*100)
	}

	logger.Info("data quality checked",
		"table", report.Table,
		"rows", report.Rows,
		"columns", report.Columns,
		"empty_cells", report.EmptyCells,
		"empty_pct", report.EmptyPct,
	)
	if len(report.MissingColumns) > 0 {
		logger.Warn("required columns missing", "table", report.Table, "columns", report.MissingColumns)
	}
	if report.SkippedRows > 0 {
		logger.Warn("malformed rows skipped", "table", report.Table, "count", report.SkippedRows)
	}
	if report.DuplicateRows > 0 {
		logger.Warn("duplicate rows found", "table", report.Table, "count", report.DuplicateRows)
	}
	return report
}

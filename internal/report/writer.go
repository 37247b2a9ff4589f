package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/pipeline"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/source"
)

// Sheet names of the scorecard workbook
const (
	SheetRaw       = "raw_data"
	SheetProcessed = "calculation_adjusted"
	SheetScorecard = "scorecard"
)

// Columns appended to the processed sheet
const (
	ColDeviationDays      = "deviation_days"
	ColDeliveryStatus     = "delivery_status"
	ColDeliveryStatusData = "delivery_status_data"
)

// ScorecardHeaders is the header row of the scorecard sheet
var ScorecardHeaders = []string{
	"product",
	string(domain.StatusNonDeveloper),
	string(domain.StatusOnTime),
	string(domain.StatusOverdue),
	string(domain.StatusInProgress),
	string(domain.StatusOverdueUnsolved),
	"total",
	"resolution_rate",
	"on_time_rate",
}

// Writer renders processing results as xlsx workbooks
type Writer struct {
	dir        string
	filename   string
	datePrefix bool
	now        func() time.Time
	logger     *slog.Logger
}

// NewWriter creates a writer placing files in dir. With datePrefix set the
// file name is prefixed by the run date as YYYY-MM-DD_.
func NewWriter(dir, filename string, datePrefix bool, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, filename: filename, datePrefix: datePrefix, now: time.Now, logger: logger}
}

// Path returns the file the next workbook will be written to
func (w *Writer) Path() string {
	name := w.filename
	if w.datePrefix {
		name = w.now().Format("2006-01-02") + "_" + name
	}
	return filepath.Join(w.dir, name)
}

// Write saves the three-sheet scorecard workbook: the raw extract as is,
// the calculation extract with the derived columns, and the ranked
// scorecard. raw may be nil, in which case the first sheet is left empty.
func (w *Writer) Write(raw, calc *source.Table, res *pipeline.Result) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRaw); err != nil {
		return "", err
	}
	if raw != nil {
		if err := writeTable(f, SheetRaw, raw); err != nil {
			return "", err
		}
	}

	if _, err := f.NewSheet(SheetProcessed); err != nil {
		return "", err
	}
	if err := writeProcessed(f, calc, res.Records); err != nil {
		return "", err
	}

	if _, err := f.NewSheet(SheetScorecard); err != nil {
		return "", err
	}
	if err := writeScorecard(f, res.Scorecards); err != nil {
		return "", err
	}

	path := w.Path()
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}

	rawRows := 0
	if raw != nil {
		rawRows = len(raw.Rows)
	}
	w.logger.Info("report written",
		"path", path,
		"raw_rows", rawRows,
		"processed_rows", len(res.Records),
		"products", len(res.Scorecards),
	)
	return path, nil
}

// WriteTable saves t as the only sheet of a new workbook at path
func WriteTable(path, sheet string, t *source.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet = safeSheetName(sheet)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := writeTable(f, sheet, t); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func writeTable(f *excelize.File, sheet string, t *source.Table) error {
	rows := make([][]interface{}, 0, len(t.Rows))
	for _, r := range t.Rows {
		cells := make([]interface{}, len(t.Headers))
		for i, h := range t.Headers {
			cells[i] = r[h]
		}
		rows = append(rows, cells)
	}
	return writeSheet(f, sheet, t.Headers, rows)
}

// writeProcessed writes every record under the calculation headers. The
// exclusion column is overwritten with the classified flag; the derived
// columns are appended unless the extract already carries them.
func writeProcessed(f *excelize.File, calc *source.Table, records []domain.Record) error {
	var headers []string
	if calc != nil {
		headers = append(headers, calc.Headers...)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[source.NormalizeHeader(h)] = i
	}
	column := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		headers = append(headers, name)
		index[name] = len(headers) - 1
		return len(headers) - 1
	}
	excludedCol := column(source.ColExcluded)
	deviationCol := column(ColDeviationDays)
	statusCol := column(ColDeliveryStatus)
	statusDataCol := column(ColDeliveryStatusData)

	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		cells := make([]interface{}, len(headers))
		for i, h := range headers {
			cells[i] = r.Fields[h]
		}
		cells[excludedCol] = string(r.Excluded)
		cells[deviationCol] = deviationCell(r.Deviation)
		cells[statusCol] = string(r.DeliveryStatus)
		cells[statusDataCol] = string(r.DeliveryStatus)
		rows = append(rows, cells)
	}
	return writeSheet(f, SheetProcessed, headers, rows)
}

func writeScorecard(f *excelize.File, cards []domain.ProductScorecard) error {
	rows := make([][]interface{}, 0, len(cards))
	for _, c := range cards {
		rows = append(rows, []interface{}{
			c.Product,
			c.NonDeveloper,
			c.OnTime,
			c.Overdue,
			c.InProgress,
			c.OverdueUnsolved,
			c.Total,
			rateCell(c.ResolutionRate),
			rateCell(c.OnTimeRate),
		})
	}
	return writeSheet(f, SheetScorecard, ScorecardHeaders, rows)
}

func deviationCell(d domain.Deviation) interface{} {
	if d.IsNumeric() {
		return d.Days
	}
	return d.String()
}

func rateCell(r domain.Rate) interface{} {
	if r.Applicable {
		return r.Value
	}
	return domain.NotApplicable
}

// writeSheet writes a bold, frozen header row followed by rows and widens
// each column to fit its longest value
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	header := make([]interface{}, len(headers))
	widths := make([]int, len(headers))
	for i, h := range headers {
		header[i] = h
		widths[i] = len(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
		for j, v := range row {
			if j < len(widths) {
				widths[j] = max(widths[j], len(fmt.Sprint(v)))
			}
		}
	}

	if len(headers) == 0 {
		return nil
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(w+2, 60))); err != nil {
			return err
		}
	}
	return nil
}

// safeSheetName trims a sheet name to the 31 characters xlsx allows
func safeSheetName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > 31 {
		return name[:31]
	}
	return name
}

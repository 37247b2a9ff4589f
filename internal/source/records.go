package source

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
)

// Canonical column names of a calculation extract
const (
	ColID                     = "id"
	ColHandlingMode           = "handling_mode"
	ColExpectedResolutionDate = "expected_resolution_date"
	ColPlannedCompletionDate  = "planned_completion_date"
	ColActualResolutionDate   = "actual_resolution_date"
	ColLastUpdateDate         = "last_update_date"
	ColApprovalStatus         = "approval_status"
	ColApprovalResult         = "approval_result"
	ColNonDevCategory         = "non_dev_category"
	ColProduct                = "product"
	ColExcluded               = "excluded"
)

// RequiredColumns are the columns the rules read
var RequiredColumns = []string{
	ColID, ColHandlingMode, ColExpectedResolutionDate, ColPlannedCompletionDate,
	ColActualResolutionDate, ColApprovalStatus, ColApprovalResult, ColLastUpdateDate,
	ColProduct, ColNonDevCategory, ColExcluded,
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01-02-06",
	"1/2/06 15:04",
	"1/2/06",
	"1/2/2006",
	"20060102",
}

// maxExcelSerial is the serial of 9999-12-31, the last date Excel stores
const maxExcelSerial = 2958465

// ParseStats describes data-quality findings of one parse
type ParseStats struct {
	Rows           int
	MalformedDates int
	MissingColumns []string
}

// Parser turns table rows into records
type Parser struct {
	loc    *time.Location
	logger *slog.Logger
}

// NewParser creates a parser. Dates without a zone are read in loc; nil
// means time.Local.
func NewParser(loc *time.Location, logger *slog.Logger) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{loc: loc, logger: logger}
}

// NormalizeHeader maps a header to its canonical form: lower case with
// spaces and hyphens turned into underscores
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	return h
}

// ToRecords parses every row. Missing columns read as empty and unparseable
// dates as unknown; neither stops the batch.
func (p *Parser) ToRecords(t *Table) ([]domain.Record, ParseStats) {
	columns := make(map[string]string, len(t.Headers))
	for _, h := range t.Headers {
		key := NormalizeHeader(h)
		if _, dup := columns[key]; !dup {
			columns[key] = h
		}
	}

	stats := ParseStats{Rows: len(t.Rows)}
	for _, c := range RequiredColumns {
		if _, ok := columns[c]; !ok {
			stats.MissingColumns = append(stats.MissingColumns, c)
		}
	}
	if len(stats.MissingColumns) > 0 {
		p.logger.Warn("columns missing from extract", "table", t.Name, "columns", stats.MissingColumns)
	}

	records := make([]domain.Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		get := func(col string) string {
			h, ok := columns[col]
			if !ok {
				return ""
			}
			return strings.TrimSpace(row[h])
		}
		date := func(col string) *time.Time {
			raw := get(col)
			d, ok := p.ParseDate(raw)
			if !ok {
				stats.MalformedDates++
				p.logger.Warn("malformed date", "table", t.Name, "row", i+2, "column", col, "value", raw)
			}
			return d
		}

		r := domain.Record{
			ID:                     get(ColID),
			HandlingMode:           get(ColHandlingMode),
			ExpectedResolutionDate: date(ColExpectedResolutionDate),
			PlannedCompletionDate:  date(ColPlannedCompletionDate),
			ActualResolutionDate:   date(ColActualResolutionDate),
			LastUpdateDate:         date(ColLastUpdateDate),
			ApprovalStatus:         get(ColApprovalStatus),
			ApprovalResult:         get(ColApprovalResult),
			Product:                get(ColProduct),
			Excluded:               parseFlag(get(ColExcluded)),
			Fields:                 row,
		}
		if category := get(ColNonDevCategory); category != "" {
			r.NonDevCategory = &category
		}
		records = append(records, r)
	}

	return records, stats
}

// ParseDate parses a cell value. Empty cells give (nil, true); values in no
// known layout give (nil, false). Bare numbers are read as spreadsheet
// serial dates.
func (p *Parser) ParseDate(raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, p.loc); err == nil {
			return &t, true
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 && serial <= maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, p.loc)
			return &local, true
		}
	}
	return nil, false
}

func parseFlag(raw string) domain.Flag {
	switch strings.ToUpper(raw) {
	case string(domain.FlagYes):
		return domain.FlagYes
	case string(domain.FlagNo):
		return domain.FlagNo
	}
	return ""
}

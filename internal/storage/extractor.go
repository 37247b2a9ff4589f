package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
	apperrors "github.com/kurihiro0119/issue-delivery-scorecard/internal/errors"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/source"
)

// Column names shared by the raw and calculation tables
const (
	ColSeq       = "seq"
	ColCreatedAt = "created_at"
)

// RootCausePlaceholder prefills the analysis column of the new-issues sheet
const RootCausePlaceholder = "Root cause: xxx Solution: xxx (edit me)"

// timestampLayout formats date-time cells read back from the database
const timestampLayout = "2006-01-02 15:04:05"

// newIssueColumns lists the projection of the new-issues query as
// source expression and output name. An empty expression selects a bind
// parameter holding the value in the third element.
var newIssueColumns = [][3]string{
	{ColSeq, ColSeq, ""},
	{"customer_project", "customer_project", ""},
	{"project_type", "project_type", ""},
	{source.ColProduct, source.ColProduct, ""},
	{"software_version", "software_version", ""},
	{"urgency", "urgency", ""},
	{"description", "description", ""},
	{"", "root_cause_and_solution", RootCausePlaceholder},
	{source.ColHandlingMode, "issue_category", ""},
	{source.ColExpectedResolutionDate, source.ColExpectedResolutionDate, ""},
	{source.ColPlannedCompletionDate, "planned_resolution_date_export", ""},
	{"", "planned_resolution_date_latest", ""},
	{"current_owner", "current_owner", ""},
	{"dev_owner", "dev_owner", ""},
	{"delivery_status", "status_export", ""},
}

// SQLExtractor implements Extractor on top of database/sql
type SQLExtractor struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// NewSQLExtractor wraps an open database handle
func NewSQLExtractor(db *sql.DB, dialect Dialect, logger *slog.Logger) *SQLExtractor {
	return &SQLExtractor{db: db, dialect: dialect, logger: logger}
}

// TableExists reports whether table is present
func (e *SQLExtractor) TableExists(ctx context.Context, table string) (bool, error) {
	return e.dialect.TableExists(ctx, e.db, table)
}

// ExtractRaw dumps the raw export table
func (e *SQLExtractor) ExtractRaw(ctx context.Context) (*source.Table, error) {
	return e.dumpTable(ctx, RawTable)
}

// ExtractCalculation dumps the resolution calculation table
func (e *SQLExtractor) ExtractCalculation(ctx context.Context) (*source.Table, error) {
	return e.dumpTable(ctx, CalculationTable)
}

func (e *SQLExtractor) dumpTable(ctx context.Context, table string) (*source.Table, error) {
	if err := e.requireTable(ctx, table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY %s DESC`, e.dialect.Qualify(table), QuoteIdent(ColCreatedAt))
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	t, err := ScanTable(rows, table)
	if err != nil {
		return nil, err
	}
	e.logger.Info("table extracted", "driver", e.dialect.Name(), "table", table, "rows", len(t.Rows), "columns", len(t.Headers))
	return t, nil
}

// ExtractNewIssues selects the calculation rows created within r, leaving
// out terminated, rejected, non-developer and hardware-fault issues. The
// seq column is renumbered 1..n in result order.
func (e *SQLExtractor) ExtractNewIssues(ctx context.Context, r domain.DateRange) (*source.Table, error) {
	if err := e.requireTable(ctx, CalculationTable); err != nil {
		return nil, err
	}

	query, args := e.newIssuesQuery(r)
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query new issues: %w", err)
	}
	defer rows.Close()

	t, err := ScanTable(rows, "new_issues")
	if err != nil {
		return nil, err
	}
	Renumber(t)

	if len(t.Rows) == 0 {
		e.logger.Warn("no new issues in range", "start", r.Start.Format("2006-01-02"), "end", r.End.Format("2006-01-02"))
	} else {
		e.logger.Info("new issues extracted", "rows", len(t.Rows), "start", r.Start.Format("2006-01-02"), "end", r.End.Format("2006-01-02"))
	}
	return t, nil
}

func (e *SQLExtractor) newIssuesQuery(r domain.DateRange) (string, []interface{}) {
	var args []interface{}
	bind := func(v interface{}) string {
		args = append(args, v)
		return e.dialect.Placeholder(len(args))
	}

	projection := make([]string, len(newIssueColumns))
	for i, c := range newIssueColumns {
		expr := QuoteIdent(c[0])
		if c[0] == "" {
			expr = fmt.Sprintf("CAST(%s AS TEXT)", bind(c[2]))
		}
		projection[i] = fmt.Sprintf("%s AS %s", expr, QuoteIdent(c[1]))
	}

	start := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 23, 59, 59, 0, time.UTC)

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(projection, ", "), e.dialect.Qualify(CalculationTable))
	fmt.Fprintf(&b, " WHERE %s >= %s", QuoteIdent(ColCreatedAt), bind(start.Format(timestampLayout)))
	fmt.Fprintf(&b, " AND %s <= %s", QuoteIdent(ColCreatedAt), bind(end.Format(timestampLayout)))
	fmt.Fprintf(&b, " AND COALESCE(%s, '') <> %s", QuoteIdent(source.ColApprovalStatus), bind(domain.ApprovalStatusTerminated))
	fmt.Fprintf(&b, " AND COALESCE(%s, '') NOT IN (%s, %s)", QuoteIdent(source.ColHandlingMode),
		bind(domain.HandlingNonDeveloper), bind(domain.HandlingHardwareFault))
	fmt.Fprintf(&b, " AND COALESCE(%s, '') <> %s", QuoteIdent(source.ColApprovalResult), bind(domain.ApprovalResultRejected))
	fmt.Fprintf(&b, " ORDER BY %s DESC", QuoteIdent(ColCreatedAt))
	return b.String(), args
}

func (e *SQLExtractor) requireTable(ctx context.Context, table string) error {
	ok, err := e.TableExists(ctx, table)
	if err != nil {
		return fmt.Errorf("failed to check table %s: %w", table, err)
	}
	if !ok {
		return apperrors.NewNotFoundError("table " + e.dialect.Qualify(table))
	}
	return nil
}

// Close closes the database handle
func (e *SQLExtractor) Close() error {
	return e.db.Close()
}

// ScanTable reads every row of rows into a table. NULL cells become empty
// strings and timestamps are formatted as "YYYY-MM-DD HH:MM:SS".
func ScanTable(rows *sql.Rows, name string) (*source.Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	t := &source.Table{Name: name, Headers: columns, Rows: []map[string]string{}}
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", name, err)
		}
		row := make(map[string]string, len(columns))
		for i, c := range columns {
			row[c] = cellString(values[i])
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return t, nil
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.Format(timestampLayout)
	default:
		return fmt.Sprint(x)
	}
}

// Renumber rewrites the seq column as 1..n when the table has one
func Renumber(t *source.Table) {
	has := false
	for _, h := range t.Headers {
		if h == ColSeq {
			has = true
			break
		}
	}
	if !has {
		return
	}
	for i, row := range t.Rows {
		row[ColSeq] = fmt.Sprint(i + 1)
	}
}

// QuoteIdent quotes an SQL identifier. Both supported drivers accept
// double-quoted identifiers.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

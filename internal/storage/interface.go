package storage

import (
	"context"
	"database/sql"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/source"
)

// Tables of the upstream reporting database
const (
	RawTable         = "raw_export"
	CalculationTable = "resolution_calculation"
)

// Extractor is the abstract interface for reading extracts out of the
// reporting database
type Extractor interface {
	// TableExists reports whether table is present in the current schema
	TableExists(ctx context.Context, table string) (bool, error)

	// Full table dumps, newest first
	ExtractRaw(ctx context.Context) (*source.Table, error)
	ExtractCalculation(ctx context.Context) (*source.Table, error)

	// ExtractNewIssues lists the issues created within r that still count
	// towards the delivery statistics
	ExtractNewIssues(ctx context.Context, r domain.DateRange) (*source.Table, error)

	// Connection management
	Close() error
}

// Dialect carries the differences between database drivers
type Dialect interface {
	Name() string
	// Qualify returns the quoted, schema-qualified name of table
	Qualify(table string) string
	// Placeholder returns the bind parameter marker for the n-th argument (1-based)
	Placeholder(n int) string
	TableExists(ctx context.Context, db *sql.DB, table string) (bool, error)
}

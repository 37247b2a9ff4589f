package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/source"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/storage"
)

// dialect adapts the shared extractor to SQLite
type dialect struct{}

func (dialect) Name() string { return "sqlite" }

func (dialect) Qualify(table string) string { return storage.QuoteIdent(table) }

func (dialect) Placeholder(int) string { return "?" }

func (dialect) TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Extractor reads extracts from a local SQLite copy of the reporting tables
type Extractor struct {
	*storage.SQLExtractor
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteExtractor opens (or creates) the database file and ensures the
// reporting tables exist
func NewSQLiteExtractor(dbPath string, logger *slog.Logger) (*Extractor, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		SQLExtractor: storage.NewSQLExtractor(db, dialect{}, logger),
		db:           db,
		logger:       logger,
	}
	if err := e.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return e, nil
}

// Migrate creates the reporting tables
func (e *Extractor) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS raw_export (
		id TEXT,
		seq INTEGER,
		created_at TIMESTAMP,
		customer_project TEXT,
		product TEXT,
		urgency TEXT,
		description TEXT,
		handling_mode TEXT,
		approval_status TEXT,
		approval_result TEXT,
		current_owner TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_raw_export_created_at ON raw_export(created_at);

	CREATE TABLE IF NOT EXISTS resolution_calculation (
		id TEXT,
		seq INTEGER,
		created_at TIMESTAMP,
		customer_project TEXT,
		project_type TEXT,
		product TEXT,
		software_version TEXT,
		urgency TEXT,
		description TEXT,
		handling_mode TEXT,
		expected_resolution_date TEXT,
		planned_completion_date TEXT,
		actual_resolution_date TEXT,
		last_update_date TEXT,
		approval_status TEXT,
		approval_result TEXT,
		non_dev_category TEXT,
		excluded TEXT,
		delivery_status TEXT,
		current_owner TEXT,
		dev_owner TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_resolution_calculation_created_at ON resolution_calculation(created_at);
	`

	_, err := e.db.ExecContext(ctx, schema)
	return err
}

// Import appends the rows of t to table. Every header of t must name a
// column of table; empty cells are stored as NULL.
func (e *Extractor) Import(ctx context.Context, table string, t *source.Table) error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("nothing to import into %s", table)
	}

	columns := make([]string, len(t.Headers))
	marks := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		columns[i] = storage.QuoteIdent(source.NormalizeHeader(h))
		marks[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		storage.QuoteIdent(table), strings.Join(columns, ", "), strings.Join(marks, ", "))

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare import into %s: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		args := make([]interface{}, len(t.Headers))
		for j, h := range t.Headers {
			if v := row[h]; v != "" {
				args[j] = v
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to import row %d into %s: %w", i+1, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	e.logger.Info("rows imported", "table", table, "rows", len(t.Rows))
	return nil
}

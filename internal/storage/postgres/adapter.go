package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/storage"
)

// dialect adapts the shared extractor to PostgreSQL. Reporting tables live
// in one schema per weekly snapshot.
type dialect struct {
	schema string
}

func (d dialect) Name() string { return "postgres" }

func (d dialect) Qualify(table string) string {
	return storage.QuoteIdent(d.schema) + "." + storage.QuoteIdent(table)
}

func (d dialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (d dialect) TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)
	`, d.schema, table).Scan(&exists)
	return exists, err
}

// SchemaName joins the configured prefix and the YYYYMMDD snapshot date
func SchemaName(prefix, date string) string {
	return prefix + date
}

// NewPostgresExtractor connects to the reporting database and reads from
// the given snapshot schema
func NewPostgresExtractor(connStr, schema string, logger *slog.Logger) (storage.Extractor, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("connected to reporting database", "schema", schema)
	return storage.NewSQLExtractor(db, dialect{schema: schema}, logger), nil
}

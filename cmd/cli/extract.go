package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/config"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/report"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/source"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/storage"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/storage/postgres"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/storage/sqlite"
)

var (
	extractRaw       bool
	extractCalc      bool
	extractNewIssues bool
	schemaDateFlag   string
	startDate        string
	endDate          string
	importTable      string
	importSheet      string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract tables from the reporting database",
	Long: `Dump the raw and calculation tables of the weekly snapshot and list the
issues created in the reporting week. Each task writes one workbook to the
output directory.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import an extract into the local SQLite database",
	Long:  `Load an xlsx or CSV extract into one of the reporting tables of the SQLite database for offline extraction.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	extractCmd.Flags().BoolVar(&extractRaw, "raw", true, "extract the raw export table")
	extractCmd.Flags().BoolVar(&extractCalc, "calculation", true, "extract the resolution calculation table")
	extractCmd.Flags().BoolVar(&extractNewIssues, "new-issues", true, "extract the issues created in the date range")
	extractCmd.Flags().StringVar(&schemaDateFlag, "schema-date", "", "snapshot date (YYYYMMDD or YYYY-MM-DD, default this week's Monday)")
	extractCmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD, default last Monday)")
	extractCmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD, default last Sunday)")

	importCmd.Flags().StringVar(&importTable, "table", storage.CalculationTable, "target table ("+storage.RawTable+" or "+storage.CalculationTable+")")
	importCmd.Flags().StringVar(&importSheet, "sheet", source.DefaultSheet, "sheet to read from xlsx files")
}

func openExtractor(cfg *config.Config, schemaDate string, logger *slog.Logger) (storage.Extractor, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresExtractor(cfg.PostgresURL, postgres.SchemaName(cfg.SchemaPrefix, schemaDate), logger)
	default:
		e, err := sqlite.NewSQLiteExtractor(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if schemaDateFlag != "" {
		cfg.SchemaDate = schemaDateFlag
	}
	if startDate != "" {
		cfg.StartDate = startDate
	}
	if endDate != "" {
		cfg.EndDate = endDate
	}
	if err := cfg.ValidateStorage(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	now, err := clock()
	if err != nil {
		return err
	}
	schemaDate, err := storage.SchemaDate(cfg.SchemaDate, now())
	if err != nil {
		return err
	}
	dateRange := storage.ResolveDateRange(cfg.StartDate, cfg.EndDate, now(), logger)

	extractor, err := openExtractor(cfg, schemaDate, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer extractor.Close()

	ctx := cmd.Context()
	tasks := []struct {
		name    string
		enabled bool
		file    string
		run     func(context.Context) (*source.Table, error)
	}{
		{"raw", extractRaw, fmt.Sprintf("%s_%s.xlsx", storage.RawTable, schemaDate), extractor.ExtractRaw},
		{"calculation", extractCalc, fmt.Sprintf("%s_%s.xlsx", storage.CalculationTable, schemaDate), extractor.ExtractCalculation},
		{"new-issues", extractNewIssues, newIssuesFile(dateRange), func(ctx context.Context) (*source.Table, error) {
			return extractor.ExtractNewIssues(ctx, dateRange)
		}},
	}

	failed := 0
	for _, task := range tasks {
		if !task.enabled {
			logger.Info("task disabled, skipping", "task", task.name)
			continue
		}

		start := time.Now()
		t, err := task.run(ctx)
		if err != nil {
			logger.Error("task failed", "task", task.name, "error", err)
			failed++
			continue
		}

		path := filepath.Join(cfg.OutputDir, task.file)
		if err := report.WriteTable(path, task.name, t); err != nil {
			logger.Error("failed to write extract", "task", task.name, "path", path, "error", err)
			failed++
			continue
		}

		logger.Info("task complete", "task", task.name, "path", path, "rows", len(t.Rows), "columns", len(t.Headers), "duration", time.Since(start))
		if !outputJSON {
			fmt.Printf("%-12s %6d rows -> %s\n", task.name, len(t.Rows), path)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d extraction task(s) failed", failed)
	}
	return nil
}

func newIssuesFile(r domain.DateRange) string {
	return fmt.Sprintf("new_issues_%s_%s.xlsx", r.Start.Format("20060102"), r.End.Format("20060102"))
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if importTable != storage.RawTable && importTable != storage.CalculationTable {
		return fmt.Errorf("unknown table %q", importTable)
	}

	ctx := cmd.Context()
	t, err := source.Open(args[0], importSheet).Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}
	source.CheckQuality(t, logger)

	e, err := sqlite.NewSQLiteExtractor(cfg.SQLitePath, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer e.Close()

	if err := e.Import(ctx, importTable, t); err != nil {
		return err
	}
	fmt.Printf("Imported %d rows into %s\n", len(t.Rows), importTable)
	return nil
}

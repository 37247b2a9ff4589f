package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/classifier"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/config"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
	apperrors "github.com/kurihiro0119/issue-delivery-scorecard/internal/errors"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/logging"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/pipeline"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/report"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/source"
	"github.com/kurihiro0119/issue-delivery-scorecard/pkg/client"
)

var (
	cfgFile    string
	outputJSON bool
	nowFlag    string
	remote     bool
	statusFlag string
	retained   bool
)

var rootCmd = &cobra.Command{
	Use:   "delivery-scorecard",
	Short: "Issue delivery scorecard tool",
	Long: `A CLI tool for computing per-product delivery scorecards from
issue-tracking extracts.

Records are classified for removal, their delivery deviation and status
are derived, and the retained records are aggregated into a per-product
scorecard ranked by on-time rate.`,
	SilenceUsage: true,
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process the extracts and write the scorecard workbook",
	Long:  `Load the raw and calculation extracts, run the scorecard pipeline and write the three-sheet workbook.`,
	Args:  cobra.NoArgs,
	RunE:  runProcess,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the ranked scorecard",
	Long:  `Display the per-product scorecard ranked by on-time rate.`,
	Args:  cobra.NoArgs,
	RunE:  runShowScorecard,
}

var showRemovalCmd = &cobra.Command{
	Use:   "removal",
	Short: "Show the removal report",
	Long:  `Display how many records the removal rules excluded.`,
	Args:  cobra.NoArgs,
	RunE:  runShowRemoval,
}

var showSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the on-time rate summary",
	Long:  `Display the product count and the average, lowest and highest on-time rate.`,
	Args:  cobra.NoArgs,
	RunE:  runShowSummary,
}

var showRecordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Show classified records",
	Long:  `Display the classified records, optionally limited to one delivery status or to the records kept for the scorecard.`,
	Args:  cobra.NoArgs,
	RunE:  runShowRecords,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&nowFlag, "now", "", "reference date for unresolved records (YYYY-MM-DD, default today)")

	showCmd.PersistentFlags().BoolVar(&remote, "remote", false, "read from the API server at API_ENDPOINT instead of the local extract")
	showRecordsCmd.Flags().StringVar(&statusFlag, "status", "", "delivery status to list")
	showRecordsCmd.Flags().BoolVar(&retained, "retained", false, "list only records not marked for removal")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(showCmd)
	showCmd.AddCommand(showRemovalCmd)
	showCmd.AddCommand(showSummaryCmd)
	showCmd.AddCommand(showRecordsCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logging.New(cfg.LogLevel, os.Stderr), nil
}

// clock returns the reference time of the run
func clock() (func() time.Time, error) {
	if nowFlag == "" {
		return time.Now, nil
	}
	t, err := time.ParseInLocation(config.DateLayout, nowFlag, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --now %q: %w", nowFlag, err)
	}
	return func() time.Time { return t }, nil
}

// runPipeline loads the calculation extract and processes it
func runPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*source.Table, *pipeline.Result, error) {
	now, err := clock()
	if err != nil {
		return nil, nil, err
	}
	processor, err := pipeline.NewProcessor(cfg, logger, now)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	loader := source.NewLoader(source.Open(cfg.CalcTablePath, cfg.CalcSheet), source.NewParser(time.Local, logger), logger)
	calc, records, err := loader.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load calculation extract: %w", err)
	}

	res, err := processor.Process(ctx, records)
	if err != nil {
		return nil, nil, err
	}
	return calc, res, nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	calc, res, err := runPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	raw, err := source.Open(cfg.RawTablePath, cfg.RawSheet).Load(ctx)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return fmt.Errorf("failed to load raw extract: %w", err)
		}
		logger.Warn("raw extract not found, raw sheet left empty", "path", cfg.RawTablePath)
		raw = nil
	}

	path, err := report.NewWriter(cfg.OutputDir, cfg.OutputFilename, cfg.OutputDatePrefix, logger).Write(raw, calc, res)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if outputJSON {
		return printJSON(map[string]interface{}{"output": path, "result": res})
	}

	fmt.Printf("\nScorecard written to %s\n\n", path)
	renderScorecard(res.Scorecards)
	fmt.Println()
	renderRemoval(res.RemovalReport)
	fmt.Println()
	renderSummary(res.Summary)
	return nil
}

func runShowScorecard(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	var cards []domain.ProductScorecard
	if remote {
		sc, err := client.NewClient(cfg.APIEndpoint).GetScorecard()
		if err != nil {
			return fmt.Errorf("failed to get scorecard: %w", err)
		}
		cards = sc.Cards
	} else {
		_, res, err := runPipeline(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		cards = res.Scorecards
	}

	if outputJSON {
		return printJSON(cards)
	}
	fmt.Printf("\nDelivery Scorecard (%d products)\n\n", len(cards))
	renderScorecard(cards)
	return nil
}

func runShowRemoval(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	var rep domain.RemovalReport
	if remote {
		r, err := client.NewClient(cfg.APIEndpoint).GetRemovalReport()
		if err != nil {
			return fmt.Errorf("failed to get removal report: %w", err)
		}
		rep = *r
	} else {
		_, res, err := runPipeline(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		rep = res.RemovalReport
	}

	if outputJSON {
		return printJSON(rep)
	}
	fmt.Printf("\nRemoval Report\n\n")
	renderRemoval(rep)
	return nil
}

func runShowSummary(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	var summary domain.ScorecardSummary
	if remote {
		s, err := client.NewClient(cfg.APIEndpoint).GetSummary()
		if err != nil {
			return fmt.Errorf("failed to get summary: %w", err)
		}
		summary = *s
	} else {
		_, res, err := runPipeline(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		summary = res.Summary
	}

	if outputJSON {
		return printJSON(summary)
	}
	fmt.Printf("\nOn-time Rate Summary\n\n")
	renderSummary(summary)
	return nil
}

func runShowRecords(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	status := domain.ParseDeliveryStatus(statusFlag)
	if statusFlag != "" && status == domain.StatusUnknown {
		return fmt.Errorf("unknown status %q", statusFlag)
	}

	var records []domain.Record
	if remote {
		filter := client.RecordFilter{Status: status}
		if retained {
			excluded := false
			filter.Excluded = &excluded
		}
		records, err = client.NewClient(cfg.APIEndpoint).GetRecords(filter)
		if err != nil {
			return fmt.Errorf("failed to get records: %w", err)
		}
	} else {
		_, res, err := runPipeline(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		candidates := res.Records
		if retained {
			candidates = classifier.Retained(candidates)
		}
		for _, r := range candidates {
			if status == domain.StatusUnknown || r.DeliveryStatus == status {
				records = append(records, r)
			}
		}
	}

	if outputJSON {
		return printJSON(records)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Product", "Handling Mode", "Excluded", "Deviation", "Status"})
	for _, r := range records {
		table.Append([]string{r.ID, r.Product, r.HandlingMode, string(r.Excluded), r.Deviation.String(), string(r.DeliveryStatus)})
	}
	table.Render()
	fmt.Printf("%d records\n", len(records))
	return nil
}

func renderScorecard(cards []domain.ProductScorecard) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rank", "Product", "Non-dev", "On-time", "Overdue", "In Progress", "Overdue Unsolved", "Total", "Resolution Rate", "On-time Rate"})
	for i, c := range cards {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			c.Product,
			fmt.Sprintf("%d", c.NonDeveloper),
			fmt.Sprintf("%d", c.OnTime),
			fmt.Sprintf("%d", c.Overdue),
			fmt.Sprintf("%d", c.InProgress),
			fmt.Sprintf("%d", c.OverdueUnsolved),
			fmt.Sprintf("%d", c.Total),
			c.ResolutionRate.Percent(),
			c.OnTimeRate.Percent(),
		})
	}
	table.Render()
}

func renderRemoval(rep domain.RemovalReport) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Total Records", fmt.Sprintf("%d", rep.Total)})
	table.Append([]string{"Excluded", fmt.Sprintf("%d", rep.Excluded)})
	table.Append([]string{"Retained", fmt.Sprintf("%d", rep.Retained)})
	table.Append([]string{"Retained %", rep.RetainedPct})
	table.Render()
}

func renderSummary(s domain.ScorecardSummary) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Products", fmt.Sprintf("%d", s.ProductCount)})
	table.Append([]string{"Average On-time Rate", s.AverageOnTimeRate})
	table.Append([]string{"Lowest On-time Rate", s.MinOnTimeRate})
	table.Append([]string{"Highest On-time Rate", s.MaxOnTimeRate})
	table.Render()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

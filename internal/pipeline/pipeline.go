package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/aggregator"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/calculator"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/classifier"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/config"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
)

// Result is the complete output of one processing run
type Result struct {
	Run           domain.ProcessingRun          `json:"run"`
	Records       []domain.Record               `json:"records"`
	Scorecards    []domain.ProductScorecard     `json:"scorecards"`
	RemovalReport domain.RemovalReport          `json:"removal_report"`
	StatusCounts  map[domain.DeliveryStatus]int `json:"status_counts"`
	Summary       domain.ScorecardSummary       `json:"summary"`
}

// Processor runs the classification stages and the scorecard reduction
type Processor struct {
	removal    *classifier.RemovalClassifier
	calculator *calculator.Calculator
	aggregator aggregator.Aggregator
	now        func() time.Time
	logger     *slog.Logger
}

// NewProcessor creates a processor from the calculation settings of cfg.
// A nil clock uses time.Now.
func NewProcessor(cfg *config.Config, logger *slog.Logger, now func() time.Time) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := aggregator.ParseSentinelPolicy(cfg.SentinelPolicy)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}

	return &Processor{
		removal:    classifier.NewRemovalClassifier(logger),
		calculator: calculator.NewCalculator(logger, now),
		aggregator: aggregator.NewAggregator(aggregator.Options{
			PercentageDecimals: cfg.PercentageDecimals,
			Sentinel:           policy,
		}, logger),
		now:    now,
		logger: logger,
	}, nil
}

// Process classifies records and builds the ranked scorecard. The input
// slice is left untouched.
func (p *Processor) Process(ctx context.Context, records []domain.Record) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("processing cancelled: %w", err)
	}

	run := domain.ProcessingRun{
		ID:          uuid.New().String(),
		Status:      domain.RunInProgress,
		ReferenceAt: p.now(),
		StartedAt:   time.Now(),
	}
	logger := p.logger.With("run_id", run.ID)
	logger.Info("processing started", "records", len(records))

	classified := p.removal.ClassifyAll(records)
	classified = p.calculator.ApplyDeviationsAt(classified, run.ReferenceAt)
	classified = p.calculator.ApplyStatuses(classified)

	cards := p.aggregator.Rank(p.aggregator.Aggregate(classified))
	summary := p.aggregator.Summarize(cards)

	run.Status = domain.RunCompleted
	run.FinishedAt = time.Now()
	logger.Info("processing finished",
		"products", summary.ProductCount,
		"average_on_time_rate", summary.AverageOnTimeRate,
		"min_on_time_rate", summary.MinOnTimeRate,
		"max_on_time_rate", summary.MaxOnTimeRate,
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)

	return &Result{
		Run:           run,
		Records:       classified,
		Scorecards:    cards,
		RemovalReport: classifier.Report(classified),
		StatusCounts:  calculator.StatusCounts(classified),
		Summary:       summary,
	}, nil
}

package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/config"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/logging"
)

var fixedNow = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func strPtr(s string) *string { return &s }

func newTestProcessor(t *testing.T, decimals int, policy string) *Processor {
	t.Helper()
	cfg := &config.Config{PercentageDecimals: decimals, SentinelPolicy: policy}
	p, err := NewProcessor(cfg, logging.Discard(), func() time.Time { return fixedNow })
	require.NoError(t, err)
	return p
}

// sampleRecords mirrors a small calculation extract: five products with a
// mix of handling modes, approvals and dates.
func sampleRecords() []domain.Record {
	return []domain.Record{
		{ID: "1", Product: "alpha", HandlingMode: domain.HandlingDeveloper, PlannedCompletionDate: day(2026, 1, 5), ActualResolutionDate: day(2026, 1, 3), ApprovalStatus: domain.ApprovalStatusClosed},
		{ID: "2", Product: "alpha", HandlingMode: domain.HandlingDeveloper, ExpectedResolutionDate: day(2026, 1, 1), ActualResolutionDate: day(2026, 1, 4)},
		{ID: "3", Product: "alpha", HandlingMode: domain.HandlingNonDeveloper, NonDevCategory: strPtr("consulting")},
		{ID: "4", Product: "beta", HandlingMode: domain.HandlingNonDeveloper, NonDevCategory: strPtr("requirement")},
		{ID: "5", Product: "beta", HandlingMode: domain.HandlingNonDeveloper},
		{ID: "6", Product: "gamma", HandlingMode: domain.HandlingDeveloper, ExpectedResolutionDate: day(2026, 1, 1), ApprovalStatus: "in-review"},
		{ID: "7", Product: "gamma", HandlingMode: domain.HandlingDeveloper, ExpectedResolutionDate: day(2026, 1, 20), ApprovalStatus: "in-review"},
		{ID: "8", Product: "gamma", HandlingMode: domain.HandlingDeveloper, ApprovalResult: domain.ApprovalResultRejected, ExpectedResolutionDate: day(2026, 1, 1)},
		{ID: "9", Product: "delta", HandlingMode: "hardware-fault"},
		{ID: "10", Product: "epsilon", HandlingMode: domain.HandlingDeveloper, ApprovalStatus: domain.ApprovalStatusTerminated},
	}
}

func TestProcess(t *testing.T) {
	p := newTestProcessor(t, 2, config.SentinelFirst)
	input := sampleRecords()

	res, err := p.Process(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, res.Records, len(input))
	byID := map[string]domain.Record{}
	for _, r := range res.Records {
		byID[r.ID] = r
	}

	assert.Equal(t, domain.DaysDeviation(-2), byID["1"].Deviation)
	assert.Equal(t, domain.StatusOnTime, byID["1"].DeliveryStatus)
	assert.Equal(t, domain.StatusOverdue, byID["2"].DeliveryStatus)
	assert.Equal(t, domain.StatusNonDeveloper, byID["3"].DeliveryStatus)
	assert.Equal(t, domain.FlagYes, byID["4"].Excluded)
	assert.Equal(t, domain.StatusOverdueUnsolved, byID["6"].DeliveryStatus)
	assert.Equal(t, domain.StatusInProgress, byID["7"].DeliveryStatus)
	assert.Equal(t, domain.FlagYes, byID["8"].Excluded)
	assert.Equal(t, domain.NonDeveloperDeviation(), byID["9"].Deviation)
	assert.Equal(t, domain.FlagYes, byID["10"].Excluded)
	assert.Equal(t, domain.StatusUnknown, byID["10"].DeliveryStatus)

	// beta (all non developer) ranks first, then gamma 0%, then alpha 50%
	require.Len(t, res.Scorecards, 3)
	assert.Equal(t, "beta", res.Scorecards[0].Product)
	assert.False(t, res.Scorecards[0].OnTimeRate.Applicable)
	assert.Equal(t, "gamma", res.Scorecards[1].Product)
	assert.Equal(t, "0.00", res.Scorecards[1].OnTimeRate.String())
	assert.Equal(t, "0.00", res.Scorecards[1].ResolutionRate.String())
	assert.Equal(t, "alpha", res.Scorecards[2].Product)
	assert.Equal(t, "50.00", res.Scorecards[2].OnTimeRate.String())
	assert.Equal(t, "100.00", res.Scorecards[2].ResolutionRate.String())
	assert.Equal(t, 3, res.Scorecards[2].Total)

	assert.Equal(t, domain.RemovalReport{Total: 10, Excluded: 3, Retained: 7, RetainedPct: "70.00%"}, res.RemovalReport)
	assert.Equal(t, 3, res.Summary.ProductCount)
	assert.Equal(t, "25.00%", res.Summary.AverageOnTimeRate)
	assert.Equal(t, 1, res.StatusCounts[domain.StatusOnTime])

	assert.NotEmpty(t, res.Run.ID)
	assert.Equal(t, domain.RunCompleted, res.Run.Status)
	assert.Equal(t, fixedNow, res.Run.ReferenceAt)

	assert.Equal(t, domain.Flag(""), input[0].Excluded, "input must not be mutated")
	assert.Equal(t, domain.StatusUnknown, input[0].DeliveryStatus)
}

func TestProcess_SentinelLast(t *testing.T) {
	p := newTestProcessor(t, 2, config.SentinelLast)

	res, err := p.Process(context.Background(), sampleRecords())
	require.NoError(t, err)

	require.Len(t, res.Scorecards, 3)
	assert.Equal(t, "gamma", res.Scorecards[0].Product)
	assert.Equal(t, "beta", res.Scorecards[2].Product)
}

func TestProcess_Deterministic(t *testing.T) {
	p := newTestProcessor(t, 2, config.SentinelFirst)

	first, err := p.Process(context.Background(), sampleRecords())
	require.NoError(t, err)
	second, err := p.Process(context.Background(), sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, first.Scorecards, second.Scorecards)
	assert.Equal(t, first.Records, second.Records)
	assert.NotEqual(t, first.Run.ID, second.Run.ID)
}

func TestProcess_EmptyInput(t *testing.T) {
	p := newTestProcessor(t, 2, config.SentinelFirst)

	res, err := p.Process(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, res.Scorecards)
	assert.Equal(t, 0, res.Summary.ProductCount)
	assert.Equal(t, "N/A", res.RemovalReport.RetainedPct)
}

func TestProcess_Cancelled(t *testing.T) {
	p := newTestProcessor(t, 2, config.SentinelFirst)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, sampleRecords())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewProcessor_InvalidConfig(t *testing.T) {
	_, err := NewProcessor(&config.Config{PercentageDecimals: 2, SentinelPolicy: "sideways"}, logging.Discard(), nil)
	assert.Error(t, err)
}

package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/logging"
)

var fixedNow = time.Date(2026, 1, 10, 15, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func at(y int, m time.Month, d, h, mi int) *time.Time {
	t := time.Date(y, m, d, h, mi, 0, 0, time.UTC)
	return &t
}

func newTestCalculator() *Calculator {
	return NewCalculator(logging.Discard(), func() time.Time { return fixedNow })
}

func TestComputeDeviation(t *testing.T) {
	tests := []struct {
		name   string
		record domain.Record
		want   domain.Deviation
	}{
		{
			name: "resolved ahead of planned date",
			record: domain.Record{
				HandlingMode:          domain.HandlingDeveloper,
				PlannedCompletionDate: day(2026, 1, 5),
				ActualResolutionDate:  day(2026, 1, 3),
			},
			want: domain.DaysDeviation(-2),
		},
		{
			name: "planned date takes priority over expected date",
			record: domain.Record{
				HandlingMode:           domain.HandlingDeveloper,
				ExpectedResolutionDate: day(2026, 1, 1),
				PlannedCompletionDate:  day(2026, 1, 5),
				ActualResolutionDate:   day(2026, 1, 6),
			},
			want: domain.DaysDeviation(1),
		},
		{
			name: "expected date used when planned is missing",
			record: domain.Record{
				HandlingMode:           domain.HandlingDeveloper,
				ExpectedResolutionDate: day(2026, 1, 1),
				ActualResolutionDate:   day(2026, 1, 3),
			},
			want: domain.DaysDeviation(2),
		},
		{
			name: "closed without resolution uses last update",
			record: domain.Record{
				HandlingMode:           domain.HandlingDeveloper,
				ExpectedResolutionDate: day(2026, 1, 1),
				ApprovalStatus:         domain.ApprovalStatusClosed,
				LastUpdateDate:         day(2026, 1, 2),
			},
			want: domain.DaysDeviation(1),
		},
		{
			name: "open without resolution uses now",
			record: domain.Record{
				HandlingMode:           domain.HandlingDeveloper,
				ExpectedResolutionDate: day(2026, 1, 1),
				ApprovalStatus:         "in-review",
				LastUpdateDate:         day(2026, 1, 2),
			},
			want: domain.DaysDeviation(9),
		},
		{
			name: "closed without resolution or update date is unknown",
			record: domain.Record{
				HandlingMode:           domain.HandlingDeveloper,
				ExpectedResolutionDate: day(2026, 1, 1),
				ApprovalStatus:         domain.ApprovalStatusClosed,
			},
			want: domain.Deviation{},
		},
		{
			name: "no baseline is unknown",
			record: domain.Record{
				HandlingMode:         domain.HandlingDeveloper,
				ActualResolutionDate: day(2026, 1, 3),
			},
			want: domain.Deviation{},
		},
		{
			name: "non developer handling wins over dates",
			record: domain.Record{
				HandlingMode:          domain.HandlingNonDeveloper,
				PlannedCompletionDate: day(2026, 1, 5),
				ActualResolutionDate:  day(2026, 1, 3),
			},
			want: domain.NonDeveloperDeviation(),
		},
		{
			name:   "unrecognised handling mode gets the sentinel",
			record: domain.Record{HandlingMode: "hardware-fault"},
			want:   domain.NonDeveloperDeviation(),
		},
		{
			name: "time of day is ignored",
			record: domain.Record{
				HandlingMode:          domain.HandlingDeveloper,
				PlannedCompletionDate: at(2026, 1, 5, 18, 0),
				ActualResolutionDate:  at(2026, 1, 3, 8, 0),
			},
			want: domain.DaysDeviation(-2),
		},
		{
			name: "same day is zero",
			record: domain.Record{
				HandlingMode:          domain.HandlingDeveloper,
				PlannedCompletionDate: at(2026, 1, 5, 9, 0),
				ActualResolutionDate:  at(2026, 1, 5, 23, 59),
			},
			want: domain.DaysDeviation(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeDeviation(tt.record, fixedNow))
		})
	}
}

func TestComputeDeviation_NonDeveloperRegardlessOfDates(t *testing.T) {
	dates := []*time.Time{nil, day(2026, 1, 1), day(2026, 3, 1)}
	for _, mode := range []string{domain.HandlingNonDeveloper, "", "other"} {
		for _, planned := range dates {
			for _, actual := range dates {
				r := domain.Record{HandlingMode: mode, PlannedCompletionDate: planned, ActualResolutionDate: actual}
				assert.Equal(t, domain.NonDeveloperDeviation(), ComputeDeviation(r, fixedNow))
			}
		}
	}
}

func TestDaysBetween_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	a := time.Date(2026, 3, 28, 12, 0, 0, 0, loc)
	b := time.Date(2026, 3, 30, 1, 0, 0, 0, loc)
	assert.Equal(t, 2, daysBetween(a, b))
	assert.Equal(t, -2, daysBetween(b, a))
}

func TestDaysBetween_LongSpan(t *testing.T) {
	a := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2400, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 146097, daysBetween(a, b))
	assert.Equal(t, -146097, daysBetween(b, a))
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name   string
		record domain.Record
		want   domain.DeliveryStatus
	}{
		{"sentinel passes through", domain.Record{Deviation: domain.NonDeveloperDeviation()}, domain.StatusNonDeveloper},
		{"unknown passes through", domain.Record{}, domain.StatusUnknown},
		{"solved early", domain.Record{Deviation: domain.DaysDeviation(-2), ActualResolutionDate: day(2026, 1, 3)}, domain.StatusOnTime},
		{"solved on the day", domain.Record{Deviation: domain.DaysDeviation(0), ActualResolutionDate: day(2026, 1, 3)}, domain.StatusOnTime},
		{"solved late", domain.Record{Deviation: domain.DaysDeviation(1), ActualResolutionDate: day(2026, 1, 3)}, domain.StatusOverdue},
		{"closed early", domain.Record{Deviation: domain.DaysDeviation(-1), ApprovalStatus: domain.ApprovalStatusClosed}, domain.StatusOnTime},
		{"closed late", domain.Record{Deviation: domain.DaysDeviation(3), ApprovalStatus: domain.ApprovalStatusClosed}, domain.StatusOverdue},
		{"open not yet due", domain.Record{Deviation: domain.DaysDeviation(0), ApprovalStatus: "in-review"}, domain.StatusInProgress},
		{"open past due", domain.Record{Deviation: domain.DaysDeviation(4), ApprovalStatus: "in-review"}, domain.StatusOverdueUnsolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.record))
		})
	}
}

func TestCalculator_Apply(t *testing.T) {
	c := newTestCalculator()
	records := []domain.Record{
		{ID: "1", HandlingMode: domain.HandlingDeveloper, PlannedCompletionDate: day(2026, 1, 5), ActualResolutionDate: day(2026, 1, 3)},
		{ID: "2", HandlingMode: domain.HandlingNonDeveloper},
		{ID: "3", HandlingMode: domain.HandlingDeveloper, ExpectedResolutionDate: day(2026, 1, 1)},
		{ID: "4", HandlingMode: domain.HandlingDeveloper},
	}

	got := c.ApplyStatuses(c.ApplyDeviations(records))

	require.Len(t, got, 4)
	assert.Equal(t, domain.DaysDeviation(-2), got[0].Deviation)
	assert.Equal(t, domain.StatusOnTime, got[0].DeliveryStatus)
	assert.Equal(t, domain.StatusNonDeveloper, got[1].DeliveryStatus)
	assert.Equal(t, domain.DaysDeviation(9), got[2].Deviation)
	assert.Equal(t, domain.StatusOverdueUnsolved, got[2].DeliveryStatus)
	assert.Equal(t, domain.StatusUnknown, got[3].DeliveryStatus)
	assert.Equal(t, domain.Deviation{}, records[0].Deviation, "input must not be mutated")

	counts := StatusCounts(got)
	assert.Equal(t, 1, counts[domain.StatusOnTime])
	assert.Equal(t, 1, counts[domain.StatusNonDeveloper])
	assert.Equal(t, 1, counts[domain.StatusOverdueUnsolved])
	assert.Equal(t, 1, counts[domain.StatusUnknown])
}

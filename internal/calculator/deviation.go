package calculator

import (
	"log/slog"
	"time"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
)

// Calculator derives the deviation and delivery status of records.
// The clock supplies "now" for records that are neither resolved nor closed.
type Calculator struct {
	now    func() time.Time
	logger *slog.Logger
}

// NewCalculator creates a new calculator. A nil clock uses time.Now.
func NewCalculator(logger *slog.Logger, now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{now: now, logger: logger}
}

// ComputeDeviation returns the signed day count between the actual date and
// the baseline date of r.
//
// Non-developer-handled records always get the sentinel. Otherwise the
// baseline is the planned completion date or, failing that, the expected
// resolution date. The actual date is the resolution date, the last update
// date for closed records, or now. Only calendar dates are compared.
func ComputeDeviation(r domain.Record, now time.Time) domain.Deviation {
	if r.HandlingMode != domain.HandlingDeveloper {
		return domain.NonDeveloperDeviation()
	}

	baseline := r.BaselineDate()
	if baseline == nil {
		return domain.Deviation{}
	}

	actual := actualDate(r, now)
	if actual == nil {
		return domain.Deviation{}
	}

	return domain.DaysDeviation(daysBetween(*baseline, *actual))
}

func actualDate(r domain.Record, now time.Time) *time.Time {
	if r.ActualResolutionDate != nil {
		return r.ActualResolutionDate
	}
	if r.IsClosed() {
		return r.LastUpdateDate
	}
	return &now
}

// daysBetween counts calendar days from a to b, ignoring the time of day
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int((db.Unix() - da.Unix()) / 86400)
}

// ApplyDeviations sets Deviation on a copy of every record, using the
// calculator's clock for "now"
func (c *Calculator) ApplyDeviations(records []domain.Record) []domain.Record {
	return c.ApplyDeviationsAt(records, c.now())
}

// ApplyDeviationsAt is ApplyDeviations with an explicit reference time
func (c *Calculator) ApplyDeviationsAt(records []domain.Record, now time.Time) []domain.Record {
	out := make([]domain.Record, len(records))

	var nonDev, numeric, unknown int
	for i, r := range records {
		r.Deviation = ComputeDeviation(r, now)
		switch r.Deviation.Kind {
		case domain.DeviationNonDeveloper:
			nonDev++
		case domain.DeviationDays:
			numeric++
		default:
			unknown++
		}
		out[i] = r
	}

	c.logger.Info("deviation computed",
		"non_developer", nonDev,
		"numeric", numeric,
		"unknown", unknown,
		"reference_date", now.Format("2006-01-02"),
	)
	return out
}

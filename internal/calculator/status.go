package calculator

import (
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
)

// Categorize maps the deviation of r to a delivery status.
//
// A deviation of zero or less is on time. Records without a resolution
// date count as solved once their approval status is closed.
func Categorize(r domain.Record) domain.DeliveryStatus {
	if r.Deviation.Kind == domain.DeviationNonDeveloper {
		return domain.StatusNonDeveloper
	}
	if !r.Deviation.IsNumeric() {
		return domain.StatusUnknown
	}

	late := r.Deviation.Days > 0
	if r.IsSolved() || r.IsClosed() {
		if late {
			return domain.StatusOverdue
		}
		return domain.StatusOnTime
	}
	if late {
		return domain.StatusOverdueUnsolved
	}
	return domain.StatusInProgress
}

// ApplyStatuses sets DeliveryStatus on a copy of every record
func (c *Calculator) ApplyStatuses(records []domain.Record) []domain.Record {
	out := make([]domain.Record, len(records))
	for i, r := range records {
		r.DeliveryStatus = Categorize(r)
		out[i] = r
	}

	counts := StatusCounts(out)
	attrs := make([]any, 0, 2*(len(domain.StatusOrder)+1))
	for _, s := range domain.StatusOrder {
		attrs = append(attrs, string(s), counts[s])
	}
	attrs = append(attrs, "unknown", counts[domain.StatusUnknown])
	c.logger.Info("delivery status computed", attrs...)

	return out
}

// StatusCounts counts records per delivery status, unknown included
func StatusCounts(records []domain.Record) map[domain.DeliveryStatus]int {
	counts := make(map[domain.DeliveryStatus]int, len(domain.StatusOrder)+1)
	for _, r := range records {
		counts[r.DeliveryStatus]++
	}
	return counts
}

package aggregator

import (
	"fmt"
	"math"
	"sort"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
)

// SentinelPolicy decides where "not applicable" rows land in the ranking
type SentinelPolicy int

const (
	// SentinelFirst keys not applicable rows at -1, ahead of every rate
	SentinelFirst SentinelPolicy = iota
	// SentinelLast keys not applicable rows after every rate
	SentinelLast
)

// ParseSentinelPolicy maps "first" or "last" to a policy
func ParseSentinelPolicy(s string) (SentinelPolicy, error) {
	switch s {
	case "", "first":
		return SentinelFirst, nil
	case "last":
		return SentinelLast, nil
	}
	return SentinelFirst, fmt.Errorf("unknown sentinel policy %q", s)
}

func (p SentinelPolicy) String() string {
	if p == SentinelLast {
		return "last"
	}
	return "first"
}

// sortKey returns the value a scorecard is ranked by
func sortKey(card domain.ProductScorecard, policy SentinelPolicy) float64 {
	if card.OnTimeRate.Applicable {
		return card.OnTimeRate.Value
	}
	if policy == SentinelLast {
		return math.Inf(1)
	}
	return -1
}

// Rank returns the scorecards sorted ascending by on-time rate. Rows with
// equal keys keep their input order.
func Rank(cards []domain.ProductScorecard, policy SentinelPolicy) []domain.ProductScorecard {
	ranked := make([]domain.ProductScorecard, len(cards))
	copy(ranked, cards)
	sort.SliceStable(ranked, func(i, j int) bool {
		return sortKey(ranked[i], policy) < sortKey(ranked[j], policy)
	})
	return ranked
}

// Summarize reports the product count and the average, lowest and highest
// numeric on-time rate. Rates are "N/A" when no product has one.
func Summarize(cards []domain.ProductScorecard) domain.ScorecardSummary {
	summary := domain.ScorecardSummary{
		ProductCount:      len(cards),
		AverageOnTimeRate: "N/A",
		MinOnTimeRate:     "N/A",
		MaxOnTimeRate:     "N/A",
	}

	var sum float64
	var n int
	low, high := math.Inf(1), math.Inf(-1)
	for _, c := range cards {
		if !c.OnTimeRate.Applicable {
			continue
		}
		v := c.OnTimeRate.Value
		sum += v
		n++
		low = math.Min(low, v)
		high = math.Max(high, v)
	}

	if n > 0 {
		summary.AverageOnTimeRate = fmt.Sprintf("%.2f%%", sum/float64(n))
		summary.MinOnTimeRate = fmt.Sprintf("%.2f%%", low)
		summary.MaxOnTimeRate = fmt.Sprintf("%.2f%%", high)
	}
	return summary
}

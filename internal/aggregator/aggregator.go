package aggregator

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
)

// Aggregator defines the interface for rolling classified records up into
// product scorecards
type Aggregator interface {
	// Aggregate groups included records by product and computes the rates
	Aggregate(records []domain.Record) []domain.ProductScorecard

	// Rank orders scorecards by on-time rate
	Rank(cards []domain.ProductScorecard) []domain.ProductScorecard

	// Summarize describes the spread of on-time rates
	Summarize(cards []domain.ProductScorecard) domain.ScorecardSummary
}

// Options configures an aggregator
type Options struct {
	// PercentageDecimals is the number of decimals rates are rounded to
	PercentageDecimals int

	// Placement of "not applicable" rows in the ranking
	Sentinel SentinelPolicy
}

// aggregator implements the Aggregator interface
type aggregator struct {
	opts   Options
	logger *slog.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(opts Options, logger *slog.Logger) Aggregator {
	return &aggregator{
		opts:   opts,
		logger: logger,
	}
}

// Aggregate groups included records by product and computes the rates
func (a *aggregator) Aggregate(records []domain.Record) []domain.ProductScorecard {
	cards := Aggregate(records, a.opts.PercentageDecimals)
	a.logger.Info("scorecard aggregated", "records", len(records), "products", len(cards))
	return cards
}

// Rank orders scorecards by on-time rate
func (a *aggregator) Rank(cards []domain.ProductScorecard) []domain.ProductScorecard {
	return Rank(cards, a.opts.Sentinel)
}

// Summarize describes the spread of on-time rates
func (a *aggregator) Summarize(cards []domain.ProductScorecard) domain.ScorecardSummary {
	return Summarize(cards)
}

// Aggregate builds one scorecard per product, in ascending product order.
//
// Only records that are not excluded and whose handling mode is developer or
// non-developer handled are counted. Records without a recognised delivery
// status contribute to no bucket, and a product with no counted record gets
// no row.
func Aggregate(records []domain.Record, decimals int) []domain.ProductScorecard {
	byProduct := make(map[string]*domain.ProductScorecard)

	for _, r := range records {
		if r.IsExcluded() || !r.IsAggregatable() {
			continue
		}
		if r.Product == "" || !r.DeliveryStatus.IsValid() {
			continue
		}
		card, ok := byProduct[r.Product]
		if !ok {
			card = &domain.ProductScorecard{Product: r.Product}
			byProduct[r.Product] = card
		}
		card.Add(r.DeliveryStatus)
	}

	products := make([]string, 0, len(byProduct))
	for p := range byProduct {
		products = append(products, p)
	}
	sort.Strings(products)

	cards := make([]domain.ProductScorecard, 0, len(products))
	for _, p := range products {
		card := byProduct[p]
		card.Total = card.NonDeveloper + card.OnTime + card.Overdue + card.InProgress + card.OverdueUnsolved
		card.ResolutionRate, card.OnTimeRate = computeRates(card, decimals)
		cards = append(cards, *card)
	}
	return cards
}

// computeRates returns the resolution and on-time rates of a card.
// Both are NotApplicable when the product has no developer-handled record.
func computeRates(card *domain.ProductScorecard, decimals int) (resolution, onTime domain.Rate) {
	denominator := card.Denominator()
	if denominator <= 0 {
		return domain.NotApplicableRate(), domain.NotApplicableRate()
	}

	resolved := float64(card.OnTime+card.Overdue) / float64(denominator) * 100
	timely := float64(card.OnTime) / float64(denominator) * 100

	return domain.NumericRate(Round(resolved, decimals), decimals),
		domain.NumericRate(Round(timely, decimals), decimals)
}

// Round rounds v to the given number of decimals. Exact ties round to the
// even digit.
func Round(v float64, decimals int) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

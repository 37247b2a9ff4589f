package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// NotApplicable is the rate value used when a product has no
// developer-handled records
const NotApplicable = "not applicable to developer handling"

// Rate is a percentage rounded to a fixed number of decimals, or the
// NotApplicable sentinel
type Rate struct {
	Value      float64
	Applicable bool
	Decimals   int // negative means shortest representation
}

// NumericRate returns an applicable rate
func NumericRate(value float64, decimals int) Rate {
	return Rate{Value: value, Applicable: true, Decimals: decimals}
}

// NotApplicableRate returns the sentinel rate
func NotApplicableRate() Rate {
	return Rate{}
}

// String renders the rate with its configured precision
func (r Rate) String() string {
	if !r.Applicable {
		return NotApplicable
	}
	return strconv.FormatFloat(r.Value, 'f', r.Decimals, 64)
}

// Percent renders the rate with a trailing percent sign
func (r Rate) Percent() string {
	if !r.Applicable {
		return NotApplicable
	}
	return r.String() + "%"
}

func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Applicable {
		return []byte(strconv.Quote(NotApplicable)), nil
	}
	return []byte(r.String()), nil
}

func (r *Rate) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*r = NumericRate(v, -1)
	case string:
		if v != NotApplicable {
			return fmt.Errorf("unexpected rate %q", v)
		}
		*r = NotApplicableRate()
	default:
		return fmt.Errorf("unexpected rate %s", string(data))
	}
	return nil
}

// ProductScorecard is the aggregated row for one product
type ProductScorecard struct {
	Product         string `json:"product"`
	NonDeveloper    int    `json:"non_developer_handled"`
	OnTime          int    `json:"on_time"`
	Overdue         int    `json:"overdue"`
	InProgress      int    `json:"in_progress_not_yet_overdue"`
	OverdueUnsolved int    `json:"overdue_unsolved"`
	Total           int    `json:"total"`
	ResolutionRate  Rate   `json:"resolution_rate"`
	OnTimeRate      Rate   `json:"on_time_rate"`
}

// Count returns the number of records carrying the given status
func (s *ProductScorecard) Count(status DeliveryStatus) int {
	switch status {
	case StatusNonDeveloper:
		return s.NonDeveloper
	case StatusOnTime:
		return s.OnTime
	case StatusOverdue:
		return s.Overdue
	case StatusInProgress:
		return s.InProgress
	case StatusOverdueUnsolved:
		return s.OverdueUnsolved
	}
	return 0
}

// Add increments the counter of the given status. Unknown statuses are
// ignored.
func (s *ProductScorecard) Add(status DeliveryStatus) {
	switch status {
	case StatusNonDeveloper:
		s.NonDeveloper++
	case StatusOnTime:
		s.OnTime++
	case StatusOverdue:
		s.Overdue++
	case StatusInProgress:
		s.InProgress++
	case StatusOverdueUnsolved:
		s.OverdueUnsolved++
	}
}

// Denominator is the number of developer-handled records in the row
func (s *ProductScorecard) Denominator() int {
	return s.Total - s.NonDeveloper
}

// RemovalReport summarises the exclusion pass
type RemovalReport struct {
	Total       int    `json:"total"`
	Excluded    int    `json:"excluded"`
	Retained    int    `json:"retained"`
	RetainedPct string `json:"retained_pct"` // "N/A" for empty input
}

// ScorecardSummary describes the spread of on-time rates
type ScorecardSummary struct {
	ProductCount      int    `json:"product_count"`
	AverageOnTimeRate string `json:"average_on_time_rate"`
	MinOnTimeRate     string `json:"min_on_time_rate"`
	MaxOnTimeRate     string `json:"max_on_time_rate"`
}

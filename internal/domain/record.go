package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Handling modes recognised by the delivery rules
const (
	HandlingDeveloper     = "developer-handled"
	HandlingNonDeveloper  = "non-developer-handled"
	HandlingHardwareFault = "hardware-fault"
)

// Approval values that drive the removal and deviation rules
const (
	ApprovalStatusClosed     = "closed"
	ApprovalStatusTerminated = "terminated"
	ApprovalResultRejected   = "approval-rejected"
	RequirementCategory      = "requirement"
)

// Flag is the YES/NO marker used by the exclusion column
type Flag string

const (
	FlagYes Flag = "YES"
	FlagNo  Flag = "NO"
)

// DeviationKind says which of the three shapes a Deviation holds
type DeviationKind int

const (
	DeviationUnknown DeviationKind = iota // no baseline or no actual date
	DeviationDays
	DeviationNonDeveloper
)

// Deviation is the signed day count between the actual (or proxy) resolution
// date and the baseline date. Positive means late.
type Deviation struct {
	Kind DeviationKind
	Days int
}

// DaysDeviation returns a numeric deviation
func DaysDeviation(days int) Deviation {
	return Deviation{Kind: DeviationDays, Days: days}
}

// NonDeveloperDeviation returns the "non-developer-handled" sentinel
func NonDeveloperDeviation() Deviation {
	return Deviation{Kind: DeviationNonDeveloper}
}

// IsNumeric reports whether the deviation carries a day count
func (d Deviation) IsNumeric() bool {
	return d.Kind == DeviationDays
}

// String renders the deviation the way it appears in the processed sheet.
// Unknown deviations render as an empty cell.
func (d Deviation) String() string {
	switch d.Kind {
	case DeviationDays:
		return strconv.Itoa(d.Days)
	case DeviationNonDeveloper:
		return HandlingNonDeveloper
	default:
		return ""
	}
}

// MarshalJSON encodes numbers as numbers, the sentinel as a string and
// unknown as null.
func (d Deviation) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case DeviationDays:
		return []byte(strconv.Itoa(d.Days)), nil
	case DeviationNonDeveloper:
		return []byte(strconv.Quote(HandlingNonDeveloper)), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the three shapes MarshalJSON produces
func (d *Deviation) UnmarshalJSON(data []byte) error {
	text := string(data)
	switch {
	case text == "null":
		*d = Deviation{}
	case text == strconv.Quote(HandlingNonDeveloper):
		*d = NonDeveloperDeviation()
	default:
		days, err := strconv.Atoi(text)
		if err != nil {
			return fmt.Errorf("invalid deviation %s", text)
		}
		*d = DaysDeviation(days)
	}
	return nil
}

// Record represents one issue-tracking row
type Record struct {
	ID                     string     `json:"id"`
	HandlingMode           string     `json:"handling_mode"`
	ExpectedResolutionDate *time.Time `json:"expected_resolution_date"`
	PlannedCompletionDate  *time.Time `json:"planned_completion_date"`
	ActualResolutionDate   *time.Time `json:"actual_resolution_date"`
	LastUpdateDate         *time.Time `json:"last_update_date"`
	ApprovalStatus         string     `json:"approval_status"`
	ApprovalResult         string     `json:"approval_result"`
	NonDevCategory         *string    `json:"non_dev_category"` // nil when the cell is empty
	Product                string     `json:"product"`

	// Computed by the classification stages. An empty Excluded means the
	// column was absent from the input and is treated as NO.
	Excluded       Flag           `json:"excluded"`
	Deviation      Deviation      `json:"deviation_days"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`

	// Fields holds every original column as text, keyed by header
	Fields map[string]string `json:"-"`
}

// IsExcluded reports whether the record has been marked for removal
func (r Record) IsExcluded() bool {
	return r.Excluded == FlagYes
}

// IsSolved reports whether a developer resolution date is recorded
func (r Record) IsSolved() bool {
	return r.ActualResolutionDate != nil
}

// IsClosed reports whether the approval workflow has ended
func (r Record) IsClosed() bool {
	return r.ApprovalStatus == ApprovalStatusClosed
}

// BaselineDate returns the planned completion date, falling back to the
// expected resolution date.
func (r Record) BaselineDate() *time.Time {
	if r.PlannedCompletionDate != nil {
		return r.PlannedCompletionDate
	}
	return r.ExpectedResolutionDate
}

// IsAggregatable reports whether the handling mode takes part in the
// scorecard.
func (r Record) IsAggregatable() bool {
	return r.HandlingMode == HandlingDeveloper || r.HandlingMode == HandlingNonDeveloper
}

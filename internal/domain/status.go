package domain

// DeliveryStatus is the discrete label derived from a record's deviation.
// The empty value stands for an unknown status.
type DeliveryStatus string

const (
	StatusNonDeveloper    DeliveryStatus = "non-developer-handled"
	StatusOnTime          DeliveryStatus = "on-time"
	StatusOverdue         DeliveryStatus = "overdue"
	StatusInProgress      DeliveryStatus = "in-progress-not-yet-overdue"
	StatusOverdueUnsolved DeliveryStatus = "overdue-unsolved"
	StatusUnknown         DeliveryStatus = ""
)

// StatusOrder is the fixed column order of the scorecard
var StatusOrder = []DeliveryStatus{
	StatusNonDeveloper,
	StatusOnTime,
	StatusOverdue,
	StatusInProgress,
	StatusOverdueUnsolved,
}

// IsValid reports whether s is one of the five scorecard labels
func (s DeliveryStatus) IsValid() bool {
	for _, known := range StatusOrder {
		if s == known {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus maps a label back to its status; unknown labels map
// to StatusUnknown.
func ParseDeliveryStatus(label string) DeliveryStatus {
	s := DeliveryStatus(label)
	if s.IsValid() {
		return s
	}
	return StatusUnknown
}

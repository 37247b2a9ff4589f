package domain

import "time"

// Run status values
const (
	RunInProgress = "in_progress"
	RunCompleted  = "completed"
	RunFailed     = "failed"
)

// ProcessingRun identifies one batch pass over a record set
type ProcessingRun struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	ReferenceAt time.Time `json:"reference_at"` // "now" used for unresolved records
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// DateRange is an inclusive calendar range used by extraction queries
type DateRange struct {
	Start time.Time
	End   time.Time
}

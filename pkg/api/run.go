package api

import "time"

// Run statuses mirror a gather's lifecycle.
const (
	RunRunning   = "RUNNING"
	RunCompleted = "COMPLETED"
	RunFailed    = "FAILED"
)

// RunRecord is one gather in an archive's run log: when it started, how
// far it got, and how it ended.
type RunRecord struct {
	ID         int64
	Sweep      string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Points     int
	Total      int
	Status     string
	Error      string
}

package types

import "time"

// Run status values. Transitions are monotonic: pending moves to exactly one
// of completed or failed and never back.
const (
	RunPending   = "pending"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RunState is the explicit per-run state record written by the orchestrator.
// It replaces inferring progress purely from the presence of stage artifacts.
type RunState struct {
	RunID      string     `json:"run_id"`
	Username   string     `json:"username"`
	Day        string     `json:"day"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

package rebuild

import (
	"encoding/json"
	"time"
)

// Status of a full rebuild run.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is one of the known rebuild states.
func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusComplete, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether a rebuild in this state can still advance.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusCancelled
}

// Execution modes recorded on the descriptor.
const (
	ModeScheduled = "scheduled"
	ModeSync      = "sync"
)

// Progress is the persisted descriptor for a full rebuild. Exactly one
// descriptor exists at a time; it is the single source of truth for
// whether a rebuild is running. Terminal descriptors are retained until
// the next Start overwrites them.
type Progress struct {
	Status      Status     `json:"status"`
	Total       int        `json:"total"`
	Processed   int        `json:"processed"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
	BatchesDone int        `json:"batches_done"`
	Mode        string     `json:"mode"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// Complete moves the descriptor into its successful terminal state.
func (p *Progress) Complete(at time.Time) {
	p.Status = StatusComplete
	p.CompletedAt = &at
}

// Fail records the batch error and halts the rebuild.
func (p *Progress) Fail(err error, at time.Time) {
	p.Status = StatusFailed
	p.LastError = err.Error()
	p.CompletedAt = &at
}

// Decode parses a persisted descriptor. Corrupted payloads and unknown
// status values decode to nil rather than an error: stale or malformed
// state reads as "no rebuild in progress".
func Decode(data []byte) *Progress {
	if len(data) == 0 {
		return nil
	}
	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	if !p.Status.Valid() {
		return nil
	}
	return &p
}

// Encode serializes the descriptor for persistence.
func (p *Progress) Encode() ([]byte, error) {
	return json.Marshal(p)
}

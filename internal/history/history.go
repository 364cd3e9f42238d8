// Package history defines the run records kept for `tidy history`.
package history

import (
	"context"
	"time"
)

// RunType is the kind of operation a run performed.
type RunType string

const (
	RunTypeOrganize RunType = "ORGANIZE"
	RunTypeUndo     RunType = "UNDO"
)

// RunStatus is the outcome of a run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Run is one organize or undo invocation.
type Run struct {
	ID         string
	User       string
	Type       RunType
	Folder     string // empty for undo runs
	BackupDir  string // empty for undo runs
	StartedAt  time.Time
	FinishedAt time.Time
	Status     RunStatus
	Files      int    // moved or restored
	Error      string // set when Status is FAILED
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Recorder stores finished runs and lists them newest first.
type Recorder interface {
	RecordRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, user string, limit int) ([]Run, error)
}

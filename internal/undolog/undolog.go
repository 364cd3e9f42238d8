// Package undolog defines the undo entry written by an organize run and the
// stores that persist it until the next undo consumes it.
package undolog

import (
	"context"
	"time"
)

// MoveRecord is one completed move: where the file went and the folder it came from.
type MoveRecord struct {
	Destination    string
	OriginalFolder string
}

// Entry is the set of moves from a user's most recent organize run.
type Entry struct {
	User      string
	RunID     string
	CreatedAt time.Time
	Files     []MoveRecord
}

// Store persists at most one Entry per user.
//
// Load returns an error of kind apperr.NoUndoAvailable when the user has no
// entry. Stores that hold a single slot for all users return
// apperr.UndoOwnershipMismatch when the slot belongs to someone else.
type Store interface {
	Save(ctx context.Context, entry Entry) error
	Load(ctx context.Context, user string) (*Entry, error)
	Delete(ctx context.Context, user string) error
}

// Package undo reverses a user's most recent organize run.
package undo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"tidy/internal/apperr"
	"tidy/internal/fileops"
	"tidy/internal/undolog"
)

// ActivityLog receives one line per restored file.
type ActivityLog interface {
	Append(user, message string) error
}

// Result contains the outcome of an undo pass.
type Result struct {
	RunID    string // run being undone
	Total    int    // records in the entry
	Restored int
	Skipped  int // destination no longer present

	ActivityErrors int // restores whose activity line could not be written
}

// Preview lists what an undo would restore without doing it.
type Preview struct {
	RunID   string
	Restore []undolog.MoveRecord // destination still present
	Missing []undolog.MoveRecord
}

// Engine restores files recorded in undo entries.
type Engine struct {
	store    undolog.Store
	activity ActivityLog
	logger   *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(store undolog.Store, activity ActivityLog, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{store: store, activity: activity, logger: logger}
}

// Undo moves every file of user's undo entry back to its original folder,
// in recorded order. Records whose destination is gone are skipped. A
// restore that would overwrite a file gets a _n suffix instead.
//
// The entry is deleted only after a full pass. If a move fails the entry is
// kept and the error is returned; a later Undo skips what was already restored.
func (e *Engine) Undo(ctx context.Context, user string) (*Result, error) {
	entry, err := e.store.Load(ctx, user)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: entry.RunID, Total: len(entry.Files)}
	reserved := fileops.NewReserved()

	for _, rec := range entry.Files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if _, err := os.Lstat(rec.Destination); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				result.Skipped++
				e.logger.Debug("destination missing, skipping", "file", rec.Destination)
				continue
			}
			return result, apperr.IO("undo", rec.Destination, err)
		}

		if err := os.MkdirAll(rec.OriginalFolder, 0755); err != nil {
			return result, apperr.IO("undo", rec.OriginalFolder, err)
		}
		base := filepath.Base(rec.Destination)
		name := fileops.UniqueName(rec.OriginalFolder, base, reserved)
		target := filepath.Join(rec.OriginalFolder, name)

		if err := fileops.Move(rec.Destination, target); err != nil {
			e.logger.Error("restore failed", "file", rec.Destination, "target", target, "error", err)
			return result, apperr.IO("undo", rec.Destination, err)
		}
		result.Restored++

		if err := e.activity.Append(user, restoredLine(base, name)); err != nil {
			result.ActivityErrors++
			e.logger.Warn("failed to append activity entry", "user", user, "error", err)
		}
	}

	if err := e.store.Delete(ctx, user); err != nil {
		return result, fmt.Errorf("failed to delete undo entry: %w", err)
	}

	e.logger.Info("undo finished",
		"user", user,
		"run", entry.RunID,
		"restored", result.Restored,
		"skipped", result.Skipped,
		"activity_errors", result.ActivityErrors)
	return result, nil
}

// restoredLine names the recorded file, and the name it was restored under
// when that differs.
func restoredLine(base, name string) string {
	if base == name {
		return "Restored: " + base
	}
	return fmt.Sprintf("Restored: %s as %s", base, name)
}

// Preview reports which records of user's entry can still be restored.
func (e *Engine) Preview(ctx context.Context, user string) (*Preview, error) {
	entry, err := e.store.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	p := &Preview{RunID: entry.RunID}
	for _, rec := range entry.Files {
		if fileops.Exists(rec.Destination) {
			p.Restore = append(p.Restore, rec)
		} else {
			p.Missing = append(p.Missing, rec)
		}
	}
	return p, nil
}

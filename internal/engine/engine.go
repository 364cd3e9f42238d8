// Package engine coordinates a tidy run: back up the folder, organize it,
// and record the run. Runs can execute on a background goroutine that
// reports progress over a channel.
package engine

import (
	"context"
	"log/slog"
	"time"

	"tidy/internal/clock"
	"tidy/internal/history"
	"tidy/internal/organizer"
	"tidy/internal/undo"
)

// Backupper snapshots a folder before it is organized.
type Backupper interface {
	Backup(ctx context.Context, user, folder string) (string, error)
}

// Request describes one organize run.
type Request struct {
	User   string
	Folder string
	Skip   map[string]struct{}
}

// Outcome is the result of a completed organize run.
type Outcome struct {
	RunID     string
	BackupDir string
	Result    *organizer.Result
	Duration  time.Duration
}

// Engine runs organize and undo operations.
type Engine struct {
	backup    Backupper
	organizer *organizer.Organizer
	undo      *undo.Engine
	runs      history.Recorder // nil disables history
	clock     clock.Clock
	ids       clock.IDGenerator
	logger    *slog.Logger
}

// Config holds Engine dependencies.
type Config struct {
	Backup    Backupper
	Organizer *organizer.Organizer
	Undo      *undo.Engine
	Runs      history.Recorder
	Clock     clock.Clock
	IDs       clock.IDGenerator
	Logger    *slog.Logger
}

// New creates an Engine.
func New(cfg Config) *Engine {
	e := &Engine{
		backup:    cfg.Backup,
		organizer: cfg.Organizer,
		undo:      cfg.Undo,
		runs:      cfg.Runs,
		clock:     cfg.Clock,
		ids:       cfg.IDs,
		logger:    cfg.Logger,
	}
	if e.clock == nil {
		e.clock = clock.Real{}
	}
	if e.ids == nil {
		e.ids = clock.UUIDGenerator{}
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// Organize backs up req.Folder and then organizes it. If the backup fails
// nothing is moved. The returned Outcome is non-nil whenever organizing
// started, even on error, so callers can report partial progress.
func (e *Engine) Organize(ctx context.Context, req Request) (*Outcome, error) {
	return e.organize(ctx, req, nil)
}

func (e *Engine) organize(ctx context.Context, req Request, emit func(Event)) (*Outcome, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	started := e.clock.Now()
	out := &Outcome{RunID: e.ids.New()}
	logger := e.logger.With("run", out.RunID)

	run := history.Run{
		ID:        out.RunID,
		User:      req.User,
		Type:      history.RunTypeOrganize,
		Folder:    req.Folder,
		StartedAt: started,
	}

	emit(Event{Type: EventStage, Stage: StageBackup, Message: StageBackup.Message()})
	dir, err := e.backup.Backup(ctx, req.User, req.Folder)
	if err != nil {
		logger.Error("backup failed", "folder", req.Folder, "error", err)
		e.record(ctx, run, err)
		return nil, err
	}
	out.BackupDir = dir
	run.BackupDir = dir

	emit(Event{Type: EventStage, Stage: StageOrganize, Message: StageOrganize.Message()})
	res, err := e.organizer.Organize(ctx, organizer.Request{
		User:   req.User,
		Folder: req.Folder,
		Skip:   req.Skip,
		RunID:  out.RunID,
		OnProgress: func(p organizer.Progress) {
			emit(Event{Type: EventProgress, Stage: StageOrganize, Progress: p})
		},
	})
	out.Result = res
	out.Duration = e.clock.Now().Sub(started)
	if res != nil {
		run.Files = res.Moved()
	}
	e.record(ctx, run, err)
	if err != nil {
		logger.Error("organize failed", "folder", req.Folder, "error", err)
		if res == nil {
			return nil, err
		}
		return out, err
	}

	logger.Info("run complete", "folder", req.Folder, "moved", res.Moved(), "backup", dir)
	return out, nil
}

// Plan reports where files would go without backing up or moving anything.
func (e *Engine) Plan(ctx context.Context, req Request) ([]organizer.PlannedMove, error) {
	return e.organizer.Plan(ctx, req.Folder, req.Skip)
}

// Undo reverses user's most recent organize run and records it.
func (e *Engine) Undo(ctx context.Context, user string) (*undo.Result, error) {
	run := history.Run{
		ID:        e.ids.New(),
		User:      user,
		Type:      history.RunTypeUndo,
		StartedAt: e.clock.Now(),
	}
	res, err := e.undo.Undo(ctx, user)
	if res != nil {
		run.Files = res.Restored
	}
	// Nothing was attempted; keep history to real runs.
	if res == nil && err != nil {
		return nil, err
	}
	e.record(ctx, run, err)
	return res, err
}

// PreviewUndo lists what Undo would restore.
func (e *Engine) PreviewUndo(ctx context.Context, user string) (*undo.Preview, error) {
	return e.undo.Preview(ctx, user)
}

// History lists user's recent runs, newest first.
func (e *Engine) History(ctx context.Context, user string, limit int) ([]history.Run, error) {
	if e.runs == nil {
		return nil, nil
	}
	return e.runs.ListRuns(ctx, user, limit)
}

func (e *Engine) record(ctx context.Context, run history.Run, runErr error) {
	if e.runs == nil {
		return
	}
	run.FinishedAt = e.clock.Now()
	run.Status = history.RunStatusCompleted
	if runErr != nil {
		run.Status = history.RunStatusFailed
		run.Error = runErr.Error()
	}
	// Record even if ctx was cancelled mid-run.
	if err := e.runs.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		e.logger.Warn("failed to record run", "run", run.ID, "error", err)
	}
}

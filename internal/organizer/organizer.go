// Package organizer moves a folder's top-level files into the
// Category/Year/Month/Size hierarchy and records each move for undo.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tidy/internal/apperr"
	"tidy/internal/classifier"
	"tidy/internal/clock"
	"tidy/internal/fileops"
	"tidy/internal/scanner"
	"tidy/internal/undolog"
)

// ActivityLog receives one human-readable line per completed move.
type ActivityLog interface {
	Append(user, message string) error
}

// Progress describes one processed file.
type Progress struct {
	Index       int // 1-based
	Total       int
	Name        string
	Destination string // empty when Skipped
	Skipped     bool
}

// Request names one organize run.
type Request struct {
	User   string
	Folder string
	Skip   map[string]struct{} // normalized extensions, see classifier.ParseSkipList
	RunID  string

	// OnProgress, if set, is called synchronously after each file.
	OnProgress func(Progress)
}

// Result summarizes an organize run.
type Result struct {
	RunID   string
	Summary map[classifier.Category]int
	Moves   []undolog.MoveRecord
	Skipped int

	// ActivityErrors counts moves whose activity line could not be written.
	ActivityErrors int
}

// Moved returns the number of files moved.
func (r *Result) Moved() int {
	return len(r.Moves)
}

// PlannedMove is a destination computed without touching the filesystem.
type PlannedMove struct {
	Source      string
	Destination string
	Category    classifier.Category
	Bucket      classifier.SizeBucket
}

// Organizer runs organize passes. Safe for sequential use by one caller.
type Organizer struct {
	activity  ActivityLog
	store     undolog.Store
	clock     clock.Clock
	logger    *slog.Logger
	createdAt func(scanner.FileEntry) time.Time
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Organizer) { o.logger = l }
}

// WithClock sets the clock used to stamp undo entries.
func WithClock(c clock.Clock) Option {
	return func(o *Organizer) { o.clock = c }
}

// WithCreationTime overrides how a file's creation time is determined.
// The default is the scanner's CreatedAt.
func WithCreationTime(fn func(scanner.FileEntry) time.Time) Option {
	return func(o *Organizer) { o.createdAt = fn }
}

// New creates an Organizer that logs moves to activity and persists undo
// entries to store.
func New(activity ActivityLog, store undolog.Store, opts ...Option) *Organizer {
	o := &Organizer{
		activity:  activity,
		store:     store,
		clock:     clock.Real{},
		logger:    slog.New(slog.DiscardHandler),
		createdAt: func(f scanner.FileEntry) time.Time { return f.CreatedAt },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DestinationDir returns folder/Category/YYYY/MM/Size for a file.
func DestinationDir(folder string, category classifier.Category, created time.Time, bucket classifier.SizeBucket) string {
	local := created.Local()
	return filepath.Join(folder,
		string(category),
		fmt.Sprintf("%04d", local.Year()),
		fmt.Sprintf("%02d", int(local.Month())),
		string(bucket))
}

// relativeDest is the "Category/YYYY/MM/Size" form used in activity lines.
func relativeDest(folder, dir string) string {
	rel, err := filepath.Rel(folder, dir)
	if err != nil {
		return dir
	}
	return filepath.ToSlash(rel)
}

func skipped(skip map[string]struct{}, f scanner.FileEntry) bool {
	if len(skip) == 0 {
		return false
	}
	_, ok := skip[strings.ToLower(f.Ext())]
	return ok
}

// Organize moves every top-level regular file of req.Folder into its
// destination. Files whose extension is in req.Skip stay in place.
//
// If at least one file moved, the moves are saved as the user's undo entry,
// replacing any previous one. This also happens when the run fails partway,
// so a partial run can be undone. A filesystem failure aborts the run with a
// FilesystemIO error; the returned Result still lists the completed moves.
func (o *Organizer) Organize(ctx context.Context, req Request) (*Result, error) {
	files, err := scanner.Scan(req.Folder)
	if err != nil {
		return nil, err
	}
	folder, err := filepath.Abs(req.Folder)
	if err != nil {
		return nil, apperr.New(apperr.FolderNotFound, "organize", req.Folder, err)
	}

	result := &Result{
		RunID:   req.RunID,
		Summary: make(map[classifier.Category]int),
	}
	reserved := fileops.NewReserved()

	runErr := o.moveAll(ctx, req, folder, files, reserved, result)

	if len(result.Moves) > 0 {
		entry := undolog.Entry{
			User:      req.User,
			RunID:     req.RunID,
			CreatedAt: o.clock.Now(),
			Files:     result.Moves,
		}
		if err := o.store.Save(ctx, entry); err != nil {
			o.logger.Error("failed to save undo entry", "user", req.User, "moves", len(result.Moves), "error", err)
			return result, errors.Join(runErr, fmt.Errorf("failed to save undo entry: %w", err))
		}
	}

	o.logger.Info("organize finished",
		"user", req.User,
		"folder", folder,
		"moved", len(result.Moves),
		"skipped", result.Skipped,
		"activity_errors", result.ActivityErrors)

	return result, runErr
}

func (o *Organizer) moveAll(ctx context.Context, req Request, folder string, files []scanner.FileEntry, reserved fileops.Reserved, result *Result) error {
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		if skipped(req.Skip, f) {
			result.Skipped++
			o.logger.Debug("skipped by extension", "file", f.Name)
			if req.OnProgress != nil {
				req.OnProgress(Progress{Index: i + 1, Total: len(files), Name: f.Name, Skipped: true})
			}
			continue
		}

		category := classifier.CategoryOf(f.Ext())
		bucket := classifier.SizeBucketOf(f.Size)
		dir := DestinationDir(folder, category, o.createdAt(f), bucket)

		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperr.IO("mkdir", dir, err)
		}

		name := fileops.UniqueName(dir, f.Name, reserved)
		dest := filepath.Join(dir, name)

		if err := fileops.Move(f.FullPath, dest); err != nil {
			o.logger.Error("move failed", "file", f.FullPath, "destination", dest, "error", err)
			return apperr.IO("move", f.FullPath, err)
		}

		result.Moves = append(result.Moves, undolog.MoveRecord{Destination: dest, OriginalFolder: folder})
		result.Summary[category]++

		msg := fmt.Sprintf("Moved: %s → %s", f.Name, relativeDest(folder, dir))
		if err := o.activity.Append(req.User, msg); err != nil {
			// The move already happened; keep going so the undo entry stays complete.
			result.ActivityErrors++
			o.logger.Warn("failed to append activity entry", "user", req.User, "error", err)
		}
		o.logger.Debug("moved", "file", f.Name, "destination", dest)

		if req.OnProgress != nil {
			req.OnProgress(Progress{Index: i + 1, Total: len(files), Name: f.Name, Destination: dest})
		}
	}
	return nil
}

// Plan computes where each file would go without creating directories or
// moving anything.
func (o *Organizer) Plan(ctx context.Context, folder string, skip map[string]struct{}) ([]PlannedMove, error) {
	files, err := scanner.Scan(folder)
	if err != nil {
		return nil, err
	}
	absFolder, err := filepath.Abs(folder)
	if err != nil {
		return nil, apperr.New(apperr.FolderNotFound, "plan", folder, err)
	}

	reserved := fileops.NewReserved()
	plan := make([]PlannedMove, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if skipped(skip, f) {
			continue
		}
		category := classifier.CategoryOf(f.Ext())
		bucket := classifier.SizeBucketOf(f.Size)
		dir := DestinationDir(absFolder, category, o.createdAt(f), bucket)
		plan = append(plan, PlannedMove{
			Source:      f.FullPath,
			Destination: filepath.Join(dir, fileops.UniqueName(dir, f.Name, reserved)),
			Category:    category,
			Bucket:      bucket,
		})
	}
	return plan, nil
}

// Package app wires tidy's components from configuration and exposes the
// operations the CLI calls.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tidy/internal/activity"
	"tidy/internal/auth"
	"tidy/internal/backup"
	"tidy/internal/classifier"
	"tidy/internal/clock"
	"tidy/internal/config"
	"tidy/internal/engine"
	"tidy/internal/history"
	"tidy/internal/organizer"
	"tidy/internal/store"
	"tidy/internal/undo"
	"tidy/internal/undolog"
)

// App is the application layer between the CLI and the engine.
// It constructs all dependencies from config and manages the DB lifecycle on Close.
type App struct {
	cfg      *config.Config
	db       *store.SQLite
	activity *activity.Log
	backups  *backup.Stage
	auth     *auth.Service
	engine   *engine.Engine
	logger   *slog.Logger
	logFile  *os.File
}

// Option adjusts construction, mainly for tests.
type Option func(*options)

type options struct {
	clock clock.Clock
	ids   clock.IDGenerator
}

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

// WithIDs replaces the run ID generator.
func WithIDs(g clock.IDGenerator) Option { return func(o *options) { o.ids = g } }

// New creates a fully wired App from cfg. operation names the CLI command
// and is logged with every record. The caller must call Close when done.
func New(cfg *config.Config, operation string, opts ...Option) (*App, error) {
	o := options{clock: clock.Real{}, ids: clock.UUIDGenerator{}}
	for _, opt := range opts {
		opt(&o)
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opID := o.clock.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With("op", operation)

	db, err := store.Open(cfg.DatabasePath())
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	var undoStore undolog.Store = db
	if cfg.Undo.Backend == config.UndoBackendFile {
		undoStore = undolog.NewFileStore(cfg.UndoFilePath())
	}

	act := activity.New(cfg.ActivityDir(), o.clock)
	stage := backup.NewStage(cfg.BackupsDir(), o.clock, logger.With("component", "backup"))
	org := organizer.New(act, undoStore,
		organizer.WithClock(o.clock),
		organizer.WithLogger(logger.With("component", "organizer")))
	undoEngine := undo.NewEngine(undoStore, act, logger.With("component", "undo"))

	eng := engine.New(engine.Config{
		Backup:    stage,
		Organizer: org,
		Undo:      undoEngine,
		Runs:      db,
		Clock:     o.clock,
		IDs:       o.ids,
		Logger:    logger,
	})

	logger.Debug("app ready", "data_dir", cfg.DataDir, "undo_backend", cfg.Undo.Backend)

	return &App{
		cfg:      cfg,
		db:       db,
		activity: act,
		backups:  stage,
		auth:     auth.NewService(db, o.clock, cfg.Auth.BcryptCost),
		engine:   eng,
		logger:   logger,
		logFile:  logFile,
	}, nil
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Register creates an account.
func (a *App) Register(ctx context.Context, name, password string) error {
	if err := a.auth.Register(ctx, name, password); err != nil {
		return err
	}
	a.logger.Info("user registered", "user", name)
	return nil
}

// Login checks credentials and returns the account.
func (a *App) Login(ctx context.Context, name, password string) (*auth.User, error) {
	u, err := a.auth.Authenticate(ctx, name, password)
	if err != nil {
		a.logger.Warn("login failed", "user", name, "error", err)
		return nil, err
	}
	return u, nil
}

// Request builds an engine request for folder, resolving it to an absolute
// path and merging skip with the configured skip_extensions.
func (a *App) Request(user, folder, skip string) (engine.Request, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return engine.Request{}, fmt.Errorf("resolving path: %w", err)
	}
	set := classifier.SkipSet(a.cfg.Organize.SkipExtensions...)
	for ext := range classifier.ParseSkipList(skip) {
		set[ext] = struct{}{}
	}
	return engine.Request{User: user, Folder: abs, Skip: set}, nil
}

// Start runs an organize in the background. See engine.Engine.Start and
// Organize for the account requirement.
func (a *App) Start(ctx context.Context, req engine.Request) <-chan engine.Event {
	return a.engine.Start(ctx, req)
}

// Organize runs an organize and waits for it. With the sqlite undo backend
// req.User must be a registered account: the undo entry references it.
func (a *App) Organize(ctx context.Context, req engine.Request) (*engine.Outcome, error) {
	return a.engine.Organize(ctx, req)
}

// Plan reports where req's files would go.
func (a *App) Plan(ctx context.Context, req engine.Request) ([]organizer.PlannedMove, error) {
	return a.engine.Plan(ctx, req)
}

// PreviewUndo lists what Undo would restore for user.
func (a *App) PreviewUndo(ctx context.Context, user string) (*undo.Preview, error) {
	return a.engine.PreviewUndo(ctx, user)
}

// Undo reverses user's last organize.
func (a *App) Undo(ctx context.Context, user string) (*undo.Result, error) {
	return a.engine.Undo(ctx, user)
}

// ActivityLog returns user's activity log text.
func (a *App) ActivityLog(user string) (string, error) {
	return a.activity.Read(user)
}

// Backups lists user's snapshots, newest first.
func (a *App) Backups(user string) ([]backup.Snapshot, error) {
	return a.backups.List(user)
}

// History returns user's most recent runs.
func (a *App) History(ctx context.Context, user string, limit int) ([]history.Run, error) {
	return a.engine.History(ctx, user, limit)
}

// Close releases the database and log file.
func (a *App) Close() error {
	var errs []error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing log file: %w", err))
		}
	}
	return errors.Join(errs...)
}

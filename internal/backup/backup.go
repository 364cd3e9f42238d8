// Package backup snapshots a folder's top-level files before tidy reorganizes it.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"tidy/internal/apperr"
	"tidy/internal/clock"
	"tidy/internal/fileops"
	"tidy/internal/scanner"
)

// TimestampLayout names snapshot directories, one-second resolution.
const TimestampLayout = "2006-01-02_15-04-05"

// Snapshot is one backup directory.
type Snapshot struct {
	Name  string
	Path  string
	Taken time.Time
	Files int
}

// Stage writes snapshots under <root>/<user>/<timestamp>.
type Stage struct {
	root   string
	clock  clock.Clock
	logger *slog.Logger
}

// NewStage creates a Stage rooted at root (typically <data_dir>/backups).
func NewStage(root string, clk clock.Clock, logger *slog.Logger) *Stage {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Stage{root: root, clock: clk, logger: logger}
}

// UserDir returns the directory holding user's snapshots.
func (s *Stage) UserDir(user string) string {
	return filepath.Join(s.root, user)
}

// Backup copies every top-level regular file of folder into a new snapshot
// and returns its path. The folder is scanned first, so a missing or
// unreadable folder fails before any directory is created. Two backups in
// the same second share a directory.
func (s *Stage) Backup(ctx context.Context, user, folder string) (string, error) {
	files, err := scanner.Scan(folder)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.UserDir(user), s.clock.Now().Format(TimestampLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperr.IO("backup", dir, err)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return dir, err
		}
		dst := filepath.Join(dir, f.Name)
		// Same-second rerun: replace the earlier copy.
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return dir, apperr.IO("backup", dst, err)
		}
		if err := fileops.CopyFile(f.FullPath, dst); err != nil {
			s.logger.Error("backup copy failed", "file", f.FullPath, "error", err)
			return dir, apperr.IO("backup", f.FullPath, err)
		}
	}

	s.logger.Info("backup created", "user", user, "dir", dir, "files", len(files))
	return dir, nil
}

// List returns user's snapshots, newest first. Directories whose names are not
// timestamps are ignored. A user with no backups gets an empty list.
func (s *Stage) List(user string) ([]Snapshot, error) {
	entries, err := os.ReadDir(s.UserDir(user))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var snaps []Snapshot
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		taken, err := time.ParseInLocation(TimestampLayout, e.Name(), time.Local)
		if err != nil {
			continue
		}
		path := filepath.Join(s.UserDir(user), e.Name())
		files, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read backup %s: %w", e.Name(), err)
		}
		count := 0
		for _, f := range files {
			if f.Type().IsRegular() {
				count++
			}
		}
		snaps = append(snaps, Snapshot{Name: e.Name(), Path: path, Taken: taken, Files: count})
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Taken.After(snaps[j].Taken) })
	return snaps, nil
}

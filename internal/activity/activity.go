// Package activity keeps the per-user, human-readable log of moves and restores.
// Each user has one append-only text file; lines are "<timestamp> - <message>".
package activity

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tidy/internal/clock"
)

// TimestampFormat is the line prefix layout, with microsecond precision.
const TimestampFormat = "2006-01-02 15:04:05.000000"

// Messages returned by Read when there is nothing to show.
const (
	NoLogMessage    = "No activity log found. Start organizing files to see activity here!"
	EmptyLogMessage = "Activity log is empty. Start organizing files to see activity here!"
)

// Log writes and reads per-user activity files under a directory.
type Log struct {
	mu    sync.Mutex
	dir   string
	clock clock.Clock
}

// New creates a Log rooted at dir. The directory is created lazily on first write.
func New(dir string, clk clock.Clock) *Log {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Log{dir: dir, clock: clk}
}

// Path returns the log file for user.
func (l *Log) Path(user string) string {
	return filepath.Join(l.dir, user+"_log.txt")
}

// Append writes one line for user and syncs it to disk.
func (l *Log) Append(user, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create activity log directory: %w", err)
	}

	f, err := os.OpenFile(l.Path(user), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open activity log: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintf(w, "%s - %s\n", l.clock.Now().Format(TimestampFormat), message); err != nil {
		return fmt.Errorf("failed to write activity entry: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush activity entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync activity log: %w", err)
	}
	return nil
}

// Read returns the user's full log. A missing file yields NoLogMessage and a
// blank one yields EmptyLogMessage; neither is an error.
func (l *Log) Read(user string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.Path(user))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NoLogMessage, nil
		}
		return "", fmt.Errorf("failed to read activity log: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return EmptyLogMessage, nil
	}
	return string(data), nil
}

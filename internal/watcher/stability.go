package watcher

import (
	"context"
	"errors"
	"os"
	"time"
)

var (
	// ErrFileGone means the file disappeared while waiting, typically a
	// partial download renamed to its final name.
	ErrFileGone = errors.New("file disappeared")
	// ErrFileUnstable means the size kept changing until the timeout.
	ErrFileUnstable = errors.New("file did not stabilize within timeout")
)

// DefaultStabilityTimeout bounds how long a single file is waited on.
const DefaultStabilityTimeout = 30 * time.Second

// StabilityChecker waits until a file's size and modification time stop changing.
type StabilityChecker struct {
	threshold time.Duration
	timeout   time.Duration
	interval  time.Duration
}

// NewStabilityChecker samples every threshold/4 (at least 10ms) and gives up
// after DefaultStabilityTimeout.
func NewStabilityChecker(threshold time.Duration) *StabilityChecker {
	interval := max(threshold/4, 10*time.Millisecond)
	return &StabilityChecker{threshold: threshold, timeout: DefaultStabilityTimeout, interval: interval}
}

// WithTimeout returns a copy of s with a different timeout.
func (s *StabilityChecker) WithTimeout(d time.Duration) *StabilityChecker {
	c := *s
	c.timeout = d
	return &c
}

type sample struct {
	size    int64
	modTime time.Time
}

func stat(path string) (sample, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sample{}, ErrFileGone
		}
		return sample{}, err
	}
	return sample{size: info.Size(), modTime: info.ModTime()}, nil
}

// Wait blocks until path has been unchanged for the threshold.
func (s *StabilityChecker) Wait(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	last, err := stat(path)
	if err != nil {
		return err
	}
	since := time.Now()
	if s.threshold <= 0 {
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrFileUnstable
			}
			return ctx.Err()
		case <-ticker.C:
			cur, err := stat(path)
			if err != nil {
				return err
			}
			if cur.size != last.size || !cur.modTime.Equal(last.modTime) {
				last, since = cur, time.Now()
			} else if time.Since(since) >= s.threshold {
				return nil
			}
		}
	}
}

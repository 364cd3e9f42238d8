package undolog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tidy/internal/apperr"
)

// FileStore keeps a single undo slot in a JSON file shared by all users:
//
//	{"user": "alice", "files": [["/dest/a.jpg", "/src"], ...]}
//
// Saving for one user replaces whatever another user had stored.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileEntry struct {
	User      string      `json:"user"`
	Files     [][2]string `json:"files"`
	RunID     string      `json:"run_id,omitempty"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save overwrites the slot with entry.
func (s *FileStore) Save(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	fe := fileEntry{User: entry.User, RunID: entry.RunID, Files: make([][2]string, 0, len(entry.Files))}
	if !entry.CreatedAt.IsZero() {
		created := entry.CreatedAt.UTC()
		fe.CreatedAt = &created
	}
	for _, m := range entry.Files {
		fe.Files = append(fe.Files, [2]string{m.Destination, m.OriginalFolder})
	}

	data, err := json.MarshalIndent(fe, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode undo entry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return apperr.IO("save undo entry", s.path, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return apperr.IO("save undo entry", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return apperr.IO("save undo entry", s.path, err)
	}
	return nil
}

// Load returns the slot if it belongs to user.
func (s *FileStore) Load(ctx context.Context, user string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	fe, err := s.read()
	if err != nil {
		return nil, err
	}
	if fe.User != user {
		return nil, apperr.New(apperr.UndoOwnershipMismatch, "load undo entry", s.path, nil)
	}

	entry := &Entry{User: fe.User, RunID: fe.RunID, Files: make([]MoveRecord, 0, len(fe.Files))}
	if fe.CreatedAt != nil {
		entry.CreatedAt = fe.CreatedAt.Local()
	}
	for _, pair := range fe.Files {
		entry.Files = append(entry.Files, MoveRecord{Destination: pair[0], OriginalFolder: pair[1]})
	}
	return entry, nil
}

// Delete clears the slot if it belongs to user. Deleting an empty slot is a no-op.
func (s *FileStore) Delete(ctx context.Context, user string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	fe, err := s.read()
	if err != nil {
		if errors.Is(err, apperr.ErrNoUndoAvailable) {
			return nil
		}
		return err
	}
	if fe.User != user {
		return apperr.New(apperr.UndoOwnershipMismatch, "delete undo entry", s.path, nil)
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperr.IO("delete undo entry", s.path, err)
	}
	return nil
}

func (s *FileStore) read() (*fileEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.New(apperr.NoUndoAvailable, "load undo entry", s.path, nil)
		}
		return nil, apperr.IO("load undo entry", s.path, err)
	}
	var fe fileEntry
	if err := json.Unmarshal(data, &fe); err != nil {
		return nil, fmt.Errorf("failed to decode undo entry %s: %w", s.path, err)
	}
	return &fe, nil
}

// Package scanner lists the top-level regular files of a folder for tidy.
package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"tidy/internal/apperr"
)

// FileEntry represents a file found during scanning.
type FileEntry struct {
	Name      string    // Filename only
	FullPath  string    // Absolute path
	Size      int64     // Bytes
	ModTime   time.Time // Modification time
	CreatedAt time.Time // Birth time where available, see CreationTime
}

// Ext returns the file's extension exactly as written, including the dot.
func (f FileEntry) Ext() string {
	return filepath.Ext(f.Name)
}

// Scan enumerates the direct children of directory that are regular files.
// Subdirectories, symlinks, and special files are not returned and are never
// descended into.
func Scan(directory string) ([]FileEntry, error) {
	absDir, err := filepath.Abs(directory)
	if err != nil {
		return nil, apperr.New(apperr.FolderNotFound, "scan", directory, err)
	}

	info, err := os.Stat(absDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.New(apperr.FolderNotFound, "scan", absDir, err)
		}
		return nil, apperr.New(apperr.FolderUnreadable, "scan", absDir, err)
	}
	if !info.IsDir() {
		return nil, apperr.New(apperr.FolderNotFound, "scan", absDir, errors.New("path is not a directory"))
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, apperr.New(apperr.FolderUnreadable, "scan", absDir, err)
	}

	files := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		fullPath := filepath.Join(absDir, entry.Name())
		fi, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, apperr.New(apperr.FolderUnreadable, "stat", fullPath, err)
		}
		files = append(files, FileEntry{
			Name:      entry.Name(),
			FullPath:  fullPath,
			Size:      fi.Size(),
			ModTime:   fi.ModTime(),
			CreatedAt: CreationTime(fullPath, fi),
		})
	}

	return files, nil
}

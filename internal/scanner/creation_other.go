//go:build !linux && !darwin && !windows

package scanner

import (
	"io/fs"
	"time"
)

// CreationTime falls back to mtime on platforms without a birth time API.
func CreationTime(_ string, info fs.FileInfo) time.Time {
	return info.ModTime()
}

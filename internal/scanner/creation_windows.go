//go:build windows

package scanner

import (
	"io/fs"
	"syscall"
	"time"
)

// CreationTime returns the NTFS creation time.
func CreationTime(_ string, info fs.FileInfo) time.Time {
	if d, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, d.CreationTime.Nanoseconds())
	}
	return info.ModTime()
}

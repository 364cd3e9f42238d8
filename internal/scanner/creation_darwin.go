//go:build darwin

package scanner

import (
	"io/fs"
	"syscall"
	"time"
)

// CreationTime returns the file's birth time from stat(2).
func CreationTime(_ string, info fs.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
	}
	return info.ModTime()
}

//go:build linux

package scanner

import (
	"io/fs"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// CreationTime returns the file's birth time via statx(2). Filesystems that do
// not record birth time fall back to the inode change time, then to mtime.
func CreationTime(path string, info fs.FileInfo) time.Time {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME|unix.STATX_CTIME, &stx)
	if err == nil {
		if stx.Mask&unix.STATX_BTIME != 0 {
			return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
		}
		if stx.Mask&unix.STATX_CTIME != 0 {
			return time.Unix(stx.Ctime.Sec, int64(stx.Ctime.Nsec))
		}
	}

	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return info.ModTime()
}

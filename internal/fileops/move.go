package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// Move renames src to dst. When the two are on different filesystems it
// falls back to copy then delete, keeping mode and modification time.
// dst must not exist.
func Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	return copyAndDelete(src, dst)
}

func copyAndDelete(src, dst string) error {
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		// Leave exactly one copy behind.
		os.Remove(dst)
		return err
	}
	return nil
}

// CopyFile streams src into a new file at dst, then applies src's permission
// bits and modification time. dst must not exist; a partial dst is removed
// on failure.
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	// umask may have narrowed the create mode.
	if err = os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

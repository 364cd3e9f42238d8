// Package fileops holds the collision-free naming and move/copy helpers shared
// by tidy's organize, undo, and backup stages.
package fileops

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Exists reports whether anything (file, dir, or dangling symlink) occupies path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Reserved tracks destination paths claimed during one run but possibly not
// yet on disk. The zero value is not usable; use NewReserved.
type Reserved map[string]struct{}

func NewReserved() Reserved {
	return make(Reserved)
}

// SplitName splits a file name into base and extension. A leading dot is part
// of the base, so ".bashrc" has no extension.
func SplitName(name string) (base, ext string) {
	ext = filepath.Ext(name)
	base = strings.TrimSuffix(name, ext)
	if base == "" {
		return name, ""
	}
	return base, ext
}

// UniqueName returns a name in dir that is neither on disk nor in reserved.
// It tries name, then base_1.ext, base_2.ext, and so on. The chosen path is
// added to reserved when reserved is non-nil.
//
// Examples, with draft.txt already present:
//   - "draft.txt" -> "draft_1.txt"
//   - "draft.txt" -> "draft_2.txt" (if draft_1.txt also exists)
func UniqueName(dir, name string, reserved Reserved) string {
	taken := func(candidate string) bool {
		p := filepath.Join(dir, candidate)
		if _, ok := reserved[p]; ok {
			return true
		}
		return Exists(p)
	}

	chosen := name
	if taken(name) {
		base, ext := SplitName(name)
		for n := 1; ; n++ {
			candidate := base + "_" + strconv.Itoa(n) + ext
			if !taken(candidate) {
				chosen = candidate
				break
			}
		}
	}

	if reserved != nil {
		reserved[filepath.Join(dir, chosen)] = struct{}{}
	}
	return chosen
}

package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Filter matches file names against ignore globs. Matching is on the base
// name and case-insensitive, so "*.part" also ignores "Movie.PART".
type Filter struct {
	patterns []string
}

// NewFilter validates patterns and returns a Filter. An empty list ignores nothing.
func NewFilter(patterns []string) (*Filter, error) {
	f := &Filter{patterns: make([]string, 0, len(patterns))}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, strings.ToLower(p))
	}
	return f, nil
}

// Ignored reports whether path's base name matches any pattern.
func (f *Filter) Ignored(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, p := range f.patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Patterns returns a copy of the active patterns.
func (f *Filter) Patterns() []string {
	return append([]string(nil), f.patterns...)
}

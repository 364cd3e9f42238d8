// Package classifier maps file extensions to categories and byte counts to size buckets.
package classifier

import "strings"

// Category is the top-level folder a file is organized into.
type Category string

const (
	Images    Category = "Images"
	Documents Category = "Documents"
	Videos    Category = "Videos"
	Audio     Category = "Audio"
	Archives  Category = "Archives"
	Others    Category = "Others"
)

// SizeBucket groups files by byte count.
type SizeBucket string

const (
	Small  SizeBucket = "Small"
	Medium SizeBucket = "Medium"
	Large  SizeBucket = "Large"
)

// Size thresholds. Boundary values belong to the smaller bucket.
const (
	SmallLimit  int64 = 1 * 1024 * 1024
	MediumLimit int64 = 10 * 1024 * 1024
)

// Rule maps a category to the extensions that belong to it.
type Rule struct {
	Category   Category
	Extensions []string
}

// rules is checked in declared order; the first match wins.
var rules = []Rule{
	{Images, []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".svg"}},
	{Documents, []string{".pdf", ".doc", ".docx", ".txt", ".ppt", ".pptx", ".xls", ".xlsx", ".csv"}},
	{Videos, []string{".mp4", ".avi", ".mov", ".mkv", ".flv", ".wmv"}},
	{Audio, []string{".mp3", ".wav", ".aac", ".flac", ".ogg", ".m4a"}},
	{Archives, []string{".zip", ".rar", ".tar", ".gz", ".7z"}},
}

// Rules returns a copy of the classification table in declared order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		exts := make([]string, len(r.Extensions))
		copy(exts, r.Extensions)
		out[i] = Rule{Category: r.Category, Extensions: exts}
	}
	return out
}

// Categories returns every category label, Others last.
func Categories() []Category {
	out := make([]Category, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.Category)
	}
	return append(out, Others)
}

// CategoryOf returns the category for an extension such as ".JPG".
// Unknown or empty extensions map to Others.
func CategoryOf(ext string) Category {
	ext = strings.ToLower(ext)
	if ext == "" {
		return Others
	}
	for _, r := range rules {
		for _, e := range r.Extensions {
			if e == ext {
				return r.Category
			}
		}
	}
	return Others
}

// SizeBucketOf returns the bucket for a byte count.
func SizeBucketOf(size int64) SizeBucket {
	switch {
	case size <= SmallLimit:
		return Small
	case size <= MediumLimit:
		return Medium
	default:
		return Large
	}
}

// NormalizeExtension lowercases ext and ensures a leading dot.
// Returns "" for blank input.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ParseSkipList turns a comma-separated list like ".txt, JPG" into a set of
// normalized extensions. Blank items are dropped.
func ParseSkipList(list string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, item := range strings.Split(list, ",") {
		if ext := NormalizeExtension(item); ext != "" {
			set[ext] = struct{}{}
		}
	}
	return set
}

// SkipSet builds a normalized set from individual extensions.
func SkipSet(exts ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if ext := NormalizeExtension(e); ext != "" {
			set[ext] = struct{}{}
		}
	}
	return set
}

package fileops

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestExists(t *testing.T) {
	tempDir := t.TempDir()

	if Exists(filepath.Join(tempDir, "nonexistent.txt")) {
		t.Error("Exists returned true for non-existent file")
	}

	existing := filepath.Join(tempDir, "existing.txt")
	if err := os.WriteFile(existing, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if !Exists(existing) {
		t.Error("Exists returned false for existing file")
	}

	dangling := filepath.Join(tempDir, "dangling")
	if err := os.Symlink(filepath.Join(tempDir, "missing"), dangling); err == nil {
		if !Exists(dangling) {
			t.Error("Exists returned false for dangling symlink")
		}
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name, base, ext string
	}{
		{"draft.txt", "draft", ".txt"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{"README", "README", ""},
		{".bashrc", ".bashrc", ""},
		{"photo.JPG", "photo", ".JPG"},
	}
	for _, tt := range tests {
		base, ext := SplitName(tt.name)
		if base != tt.base || ext != tt.ext {
			t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)", tt.name, base, ext, tt.base, tt.ext)
		}
	}
}

func TestUniqueName_NoConflict(t *testing.T) {
	tempDir := t.TempDir()
	if got := UniqueName(tempDir, "draft.txt", nil); got != "draft.txt" {
		t.Errorf("Expected original filename, got %q", got)
	}
}

func TestUniqueName_FirstCollision(t *testing.T) {
	tempDir := t.TempDir()
	os.WriteFile(filepath.Join(tempDir, "draft.txt"), []byte("old"), 0644)

	if got := UniqueName(tempDir, "draft.txt", nil); got != "draft_1.txt" {
		t.Errorf("Expected draft_1.txt, got %q", got)
	}
}

func TestUniqueName_SkipsTakenSuffixes(t *testing.T) {
	tempDir := t.TempDir()
	for _, f := range []string{"draft.txt", "draft_1.txt", "draft_2.txt"} {
		os.WriteFile(filepath.Join(tempDir, f), []byte("x"), 0644)
	}

	if got := UniqueName(tempDir, "draft.txt", nil); got != "draft_3.txt" {
		t.Errorf("Expected draft_3.txt, got %q", got)
	}
}

func TestUniqueName_NoExtension(t *testing.T) {
	tempDir := t.TempDir()
	os.WriteFile(filepath.Join(tempDir, "Makefile"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(tempDir, ".env"), []byte("x"), 0644)

	if got := UniqueName(tempDir, "Makefile", nil); got != "Makefile_1" {
		t.Errorf("Expected Makefile_1, got %q", got)
	}
	if got := UniqueName(tempDir, ".env", nil); got != ".env_1" {
		t.Errorf("Expected .env_1, got %q", got)
	}
}

func TestUniqueName_Reserved(t *testing.T) {
	tempDir := t.TempDir()
	reserved := NewReserved()

	first := UniqueName(tempDir, "a.txt", reserved)
	second := UniqueName(tempDir, "a.txt", reserved)
	third := UniqueName(tempDir, "a.txt", reserved)

	if first != "a.txt" || second != "a_1.txt" || third != "a_2.txt" {
		t.Errorf("got %q, %q, %q; want a.txt, a_1.txt, a_2.txt", first, second, third)
	}
	if _, ok := reserved[filepath.Join(tempDir, "a_2.txt")]; !ok {
		t.Error("chosen path was not reserved")
	}
}

// N sources targeting the same directory and name get name, name_1, ..., name_{N-1}.
func TestUniqueName_SequenceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("N collisions yield consecutive suffixes", prop.ForAll(
		func(n int, base string) bool {
			tempDir := t.TempDir()
			name := base + ".dat"

			for i := 0; i < n; i++ {
				got := UniqueName(tempDir, name, nil)
				want := name
				if i > 0 {
					want = base + "_" + strconv.Itoa(i) + ".dat"
				}
				if got != want {
					t.Logf("iteration %d: got %q, want %q", i, got, want)
					return false
				}
				if err := os.WriteFile(filepath.Join(tempDir, got), []byte{byte(i)}, 0644); err != nil {
					t.Logf("write failed: %v", err)
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 12),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

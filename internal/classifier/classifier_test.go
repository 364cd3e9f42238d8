package classifier

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCategoryOf_DeclaredExtensions(t *testing.T) {
	for _, rule := range Rules() {
		for _, ext := range rule.Extensions {
			if got := CategoryOf(ext); got != rule.Category {
				t.Errorf("CategoryOf(%q) = %q, want %q", ext, got, rule.Category)
			}
			upper := strings.ToUpper(ext)
			if got := CategoryOf(upper); got != rule.Category {
				t.Errorf("CategoryOf(%q) = %q, want %q", upper, got, rule.Category)
			}
		}
	}
}

func TestCategoryOf_Fallback(t *testing.T) {
	tests := []string{"", ".", ".exe", ".jpgx", "jpg", ".tar.gz.bak", ".md"}
	for _, ext := range tests {
		if got := CategoryOf(ext); got != Others {
			t.Errorf("CategoryOf(%q) = %q, want Others", ext, got)
		}
	}
}

func TestCategories_OrderAndFallbackLast(t *testing.T) {
	cats := Categories()
	want := []Category{Images, Documents, Videos, Audio, Archives, Others}
	if len(cats) != len(want) {
		t.Fatalf("Categories() len = %d, want %d", len(cats), len(want))
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Errorf("Categories()[%d] = %q, want %q", i, cats[i], want[i])
		}
	}
}

func TestRules_ReturnsCopy(t *testing.T) {
	r := Rules()
	r[0].Extensions[0] = ".exe"
	if CategoryOf(".exe") != Others {
		t.Error("mutating Rules() result changed the classification table")
	}
}

func TestSizeBucketOf_Boundaries(t *testing.T) {
	tests := []struct {
		size int64
		want SizeBucket
	}{
		{0, Small},
		{500 * 1024, Small},
		{SmallLimit, Small},
		{SmallLimit + 1, Medium},
		{2 * 1024 * 1024, Medium},
		{MediumLimit, Medium},
		{MediumLimit + 1, Large},
		{1 << 40, Large},
	}
	for _, tt := range tests {
		if got := SizeBucketOf(tt.size); got != tt.want {
			t.Errorf("SizeBucketOf(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestNormalizeExtension(t *testing.T) {
	tests := map[string]string{
		".TXT":   ".txt",
		" jpg ":  ".jpg",
		"":       "",
		"   ":    "",
		".tar":   ".tar",
		"Tar.GZ": ".tar.gz",
	}
	for in, want := range tests {
		if got := NormalizeExtension(in); got != want {
			t.Errorf("NormalizeExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSkipList(t *testing.T) {
	set := ParseSkipList(".txt, JPG,,  .Pdf ")
	for _, ext := range []string{".txt", ".jpg", ".pdf"} {
		if _, ok := set[ext]; !ok {
			t.Errorf("ParseSkipList missing %q", ext)
		}
	}
	if len(set) != 3 {
		t.Errorf("ParseSkipList len = %d, want 3", len(set))
	}
	if len(ParseSkipList("")) != 0 {
		t.Error("ParseSkipList(\"\") should be empty")
	}
}

func isDeclared(ext string) bool {
	for _, r := range rules {
		for _, e := range r.Extensions {
			if e == strings.ToLower(ext) {
				return true
			}
		}
	}
	return false
}

func TestCategoryOf_UnknownExtensionsAreOthers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("extensions outside the table classify as Others", prop.ForAll(
		func(s string) bool {
			ext := "." + s
			if isDeclared(ext) {
				return true
			}
			return CategoryOf(ext) == Others
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestSizeBucketOf_Monotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	order := map[SizeBucket]int{Small: 0, Medium: 1, Large: 2}

	properties.Property("larger files never land in a smaller bucket", prop.ForAll(
		func(a, b int64) bool {
			if a > b {
				a, b = b, a
			}
			return order[SizeBucketOf(a)] <= order[SizeBucketOf(b)]
		},
		gen.Int64Range(0, 64*1024*1024),
		gen.Int64Range(0, 64*1024*1024),
	))

	properties.Property("bucket matches threshold definition", prop.ForAll(
		func(n int64) bool {
			switch SizeBucketOf(n) {
			case Small:
				return n <= SmallLimit
			case Medium:
				return n > SmallLimit && n <= MediumLimit
			default:
				return n > MediumLimit
			}
		},
		gen.Int64Range(0, 64*1024*1024),
	))

	properties.TestingRun(t)
}

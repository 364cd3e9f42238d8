package organizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"tidy/internal/apperr"
	"tidy/internal/classifier"
	"tidy/internal/scanner"
	"tidy/internal/testutil"
	"tidy/internal/undolog"
)

type recordingLog struct {
	mu    sync.Mutex
	lines map[string][]string
}

func newRecordingLog() *recordingLog {
	return &recordingLog{lines: make(map[string][]string)}
}

func (r *recordingLog) Append(user, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[user] = append(r.lines[user], message)
	return nil
}

var march2024 = time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)

func fixedCreation(t time.Time) Option {
	return WithCreationTime(func(scanner.FileEntry) time.Time { return t })
}

func newTestOrganizer(log ActivityLog, store undolog.Store) *Organizer {
	return New(log, store,
		fixedCreation(march2024),
		WithClock(testutil.FixedClock()),
		WithLogger(testutil.DiscardLogger()))
}

func TestOrganizeScenario(t *testing.T) {
	folder := t.TempDir()
	testutil.WriteFile(t, folder, "photo.jpg", make([]byte, 500*1024))
	testutil.WriteFile(t, folder, "report.pdf", make([]byte, 2*1024*1024))

	log := newRecordingLog()
	store := undolog.NewMemoryStore()
	org := newTestOrganizer(log, store)

	result, err := org.Organize(context.Background(), Request{User: "alice", Folder: folder, RunID: "run-1"})
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}

	wantSummary := map[classifier.Category]int{classifier.Images: 1, classifier.Documents: 1}
	if !reflect.DeepEqual(result.Summary, wantSummary) {
		t.Errorf("Summary = %v, want %v", result.Summary, wantSummary)
	}

	wantTree := []string{
		"Documents/",
		"Documents/2024/",
		"Documents/2024/03/",
		"Documents/2024/03/Medium/",
		"Documents/2024/03/Medium/report.pdf",
		"Images/",
		"Images/2024/",
		"Images/2024/03/",
		"Images/2024/03/Small/",
		"Images/2024/03/Small/photo.jpg",
	}
	if got := testutil.Tree(t, folder); !reflect.DeepEqual(got, wantTree) {
		t.Errorf("tree = %v\nwant %v", got, wantTree)
	}

	wantLines := []string{
		"Moved: photo.jpg → Images/2024/03/Small",
		"Moved: report.pdf → Documents/2024/03/Medium",
	}
	if !reflect.DeepEqual(log.lines["alice"], wantLines) {
		t.Errorf("activity = %v, want %v", log.lines["alice"], wantLines)
	}

	entry, err := store.Load(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if entry.RunID != "run-1" || len(entry.Files) != 2 {
		t.Fatalf("entry = %+v", entry)
	}
	absFolder, _ := filepath.Abs(folder)
	for _, m := range entry.Files {
		if m.OriginalFolder != absFolder {
			t.Errorf("OriginalFolder = %q, want %q", m.OriginalFolder, absFolder)
		}
		if _, err := os.Stat(m.Destination); err != nil {
			t.Errorf("destination %s missing: %v", m.Destination, err)
		}
	}
}

func TestOrganizeCollisionWithExistingTree(t *testing.T) {
	folder := t.TempDir()
	testutil.WriteFile(t, folder, "Documents/2024/03/Small/draft.txt", []byte("old"))
	testutil.WriteFile(t, folder, "draft.txt", []byte("new"))

	org := newTestOrganizer(newRecordingLog(), undolog.NewMemoryStore())
	if _, err := org.Organize(context.Background(), Request{User: "alice", Folder: folder}); err != nil {
		t.Fatalf("Organize() error = %v", err)
	}

	dir := filepath.Join(folder, "Documents", "2024", "03", "Small")
	old, _ := os.ReadFile(filepath.Join(dir, "draft.txt"))
	moved, err := os.ReadFile(filepath.Join(dir, "draft_1.txt"))
	if err != nil {
		t.Fatalf("draft_1.txt missing: %v", err)
	}
	if string(old) != "old" || string(moved) != "new" {
		t.Errorf("draft.txt = %q, draft_1.txt = %q", old, moved)
	}
}

func TestOrganizeSkipList(t *testing.T) {
	folder := t.TempDir()
	testutil.WriteFile(t, folder, "notes.TXT", []byte("keep"))
	testutil.WriteFile(t, folder, "song.mp3", []byte("move"))

	var events []Progress
	org := newTestOrganizer(newRecordingLog(), undolog.NewMemoryStore())
	result, err := org.Organize(context.Background(), Request{
		User:       "alice",
		Folder:     folder,
		Skip:       classifier.ParseSkipList("txt"),
		OnProgress: func(p Progress) { events = append(events, p) },
	})
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}

	if got := testutil.TopLevelFiles(t, folder); !reflect.DeepEqual(got, []string{"notes.TXT"}) {
		t.Errorf("top-level files = %v, want [notes.TXT]", got)
	}
	if result.Skipped != 1 || result.Moved() != 1 || result.Summary[classifier.Audio] != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(events) != 2 || !events[0].Skipped || events[1].Skipped || events[1].Total != 2 {
		t.Errorf("progress events = %+v", events)
	}
}

func TestOrganizeDoesNotWalkSubdirectories(t *testing.T) {
	folder := t.TempDir()
	testutil.WriteFile(t, folder, "nested/inner.jpg", []byte("x"))
	testutil.WriteFile(t, folder, "top.zip", []byte("x"))

	org := newTestOrganizer(newRecordingLog(), undolog.NewMemoryStore())
	result, err := org.Organize(context.Background(), Request{User: "alice", Folder: folder})
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}
	if result.Moved() != 1 || result.Summary[classifier.Archives] != 1 {
		t.Errorf("result = %+v", result)
	}
	if _, err := os.Stat(filepath.Join(folder, "nested", "inner.jpg")); err != nil {
		t.Errorf("nested file was touched: %v", err)
	}
}

func TestOrganizeSecondRunLeavesTreeAlone(t *testing.T) {
	folder := t.TempDir()
	testutil.WriteFile(t, folder, "a.png", []byte("x"))

	store := undolog.NewMemoryStore()
	org := newTestOrganizer(newRecordingLog(), store)
	if _, err := org.Organize(context.Background(), Request{User: "alice", Folder: folder, RunID: "run-1"}); err != nil {
		t.Fatal(err)
	}
	result, err := org.Organize(context.Background(), Request{User: "alice", Folder: folder, RunID: "run-2"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Moved() != 0 {
		t.Errorf("second run moved %d files", result.Moved())
	}

	entry, err := store.Load(context.Background(), "alice")
	if err != nil || entry.RunID != "run-1" {
		t.Errorf("undo entry replaced by an empty run: %+v, %v", entry, err)
	}
}

func TestOrganizeEmptyFolderSavesNothing(t *testing.T) {
	store := undolog.NewMemoryStore()
	org := newTestOrganizer(newRecordingLog(), store)
	result, err := org.Organize(context.Background(), Request{User: "alice", Folder: t.TempDir()})
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}
	if result.Moved() != 0 || len(result.Summary) != 0 {
		t.Errorf("result = %+v", result)
	}
	if _, err := store.Load(context.Background(), "alice"); !errors.Is(err, apperr.ErrNoUndoAvailable) {
		t.Errorf("Load() error = %v, want NoUndoAvailable", err)
	}
}

type failingLog struct{}

func (failingLog) Append(string, string) error { return errors.New("disk full") }

func TestOrganizeFailureKeepsCompletedMovesUndoable(t *testing.T) {
	folder := t.TempDir()
	testutil.WriteFile(t, folder, "0.pdf", []byte("pdf"))
	testutil.WriteFile(t, folder, "1.jpg", []byte("jpeg"))
	// A regular file where the Images tree belongs makes the second move fail.
	testutil.WriteFile(t, folder, "Images", []byte("in the way"))

	store := undolog.NewMemoryStore()
	org := newTestOrganizer(newRecordingLog(), store)
	result, err := org.Organize(context.Background(), Request{User: "alice", Folder: folder, RunID: "run-1"})
	if !errors.Is(err, apperr.ErrFilesystemIO) {
		t.Fatalf("Organize() error = %v, want FilesystemIO", err)
	}
	if result == nil || result.Moved() != 1 {
		t.Fatalf("result = %+v, want one completed move", result)
	}

	wantDest := filepath.Join(folder, "Documents", "2024", "03", "Small", "0.pdf")
	if _, err := os.Stat(wantDest); err != nil {
		t.Errorf("completed move was rolled back: %v", err)
	}
	if got := testutil.TopLevelFiles(t, folder); !reflect.DeepEqual(got, []string{"1.jpg", "Images"}) {
		t.Errorf("top level = %v", got)
	}

	entry, err := store.Load(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []undolog.MoveRecord{{Destination: wantDest, OriginalFolder: folder}}
	if !reflect.DeepEqual(entry.Files, want) {
		t.Errorf("entry.Files = %+v, want %+v", entry.Files, want)
	}
}

func TestOrganizeCountsActivityErrors(t *testing.T) {
	folder := t.TempDir()
	testutil.WriteFile(t, folder, "a.txt", []byte("a"))
	testutil.WriteFile(t, folder, "b.mp3", []byte("b"))

	store := undolog.NewMemoryStore()
	result, err := newTestOrganizer(failingLog{}, store).Organize(context.Background(), Request{User: "alice", Folder: folder})
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}
	if result.Moved() != 2 || result.ActivityErrors != 2 {
		t.Errorf("Moved() = %d, ActivityErrors = %d, want 2 and 2", result.Moved(), result.ActivityErrors)
	}
	if entry, err := store.Load(context.Background(), "alice"); err != nil || len(entry.Files) != 2 {
		t.Errorf("undo entry = %+v, %v", entry, err)
	}
}

func TestOrganizeMissingFolder(t *testing.T) {
	org := newTestOrganizer(newRecordingLog(), undolog.NewMemoryStore())
	_, err := org.Organize(context.Background(), Request{User: "alice", Folder: filepath.Join(t.TempDir(), "gone")})
	if !errors.Is(err, apperr.ErrFolderNotFound) {
		t.Errorf("Organize() error = %v, want FolderNotFound", err)
	}
}

func TestOrganizeUsesCreationMonth(t *testing.T) {
	folder := t.TempDir()
	testutil.WriteFile(t, folder, "clip.mkv", make([]byte, 11*1024*1024))

	org := New(newRecordingLog(), undolog.NewMemoryStore(),
		fixedCreation(time.Date(2019, 11, 2, 8, 0, 0, 0, time.Local)),
		WithLogger(testutil.DiscardLogger()))
	if _, err := org.Organize(context.Background(), Request{User: "alice", Folder: folder}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(folder, "Videos", "2019", "11", "Large", "clip.mkv")); err != nil {
		t.Errorf("clip.mkv not at Videos/2019/11/Large: %v", err)
	}
}

func TestPlanDoesNotMutate(t *testing.T) {
	folder := t.TempDir()
	testutil.WriteFile(t, folder, "Images/2024/03/Small/a.jpg", []byte("old"))
	testutil.WriteFile(t, folder, "a.jpg", []byte("new"))
	testutil.WriteFile(t, folder, "b.txt", []byte("skip me"))
	before := testutil.Tree(t, folder)

	org := newTestOrganizer(newRecordingLog(), undolog.NewMemoryStore())
	plan, err := org.Plan(context.Background(), folder, classifier.SkipSet("txt"))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if after := testutil.Tree(t, folder); !reflect.DeepEqual(before, after) {
		t.Errorf("Plan changed the tree:\nbefore %v\nafter  %v", before, after)
	}
	if len(plan) != 1 {
		t.Fatalf("plan = %+v, want one move", plan)
	}
	absFolder, _ := filepath.Abs(folder)
	want := filepath.Join(absFolder, "Images", "2024", "03", "Small", "a_1.jpg")
	if plan[0].Destination != want || plan[0].Category != classifier.Images || plan[0].Bucket != classifier.Small {
		t.Errorf("plan[0] = %+v, want destination %s", plan[0], want)
	}
}

// Every organized file ends up at Category/YYYY/MM/Size/<name or name_n>
// with the category and bucket its extension and size imply.
func TestOrganizePlacementProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	exts := []string{".jpg", ".pdf", ".mp4", ".flac", ".7z", ".xyz", ""}
	sizes := []int{0, 1024, 1024*1024 + 1}

	properties.Property("files land in the directory their attributes imply", prop.ForAll(
		func(extIdx, sizeIdx []int) bool {
			folder := t.TempDir()
			n := len(extIdx)
			if len(sizeIdx) < n {
				n = len(sizeIdx)
			}
			want := make(map[string]string)
			for i := 0; i < n; i++ {
				ext := exts[extIdx[i]]
				size := sizes[sizeIdx[i]]
				name := "f" + string(rune('a'+i)) + ext
				testutil.WriteFile(t, folder, name, make([]byte, size))
				want[name] = filepath.Join(
					string(classifier.CategoryOf(ext)), "2024", "03",
					string(classifier.SizeBucketOf(int64(size))), name)
			}

			org := newTestOrganizer(newRecordingLog(), undolog.NewMemoryStore())
			result, err := org.Organize(context.Background(), Request{User: "u", Folder: folder})
			if err != nil {
				t.Logf("Organize() error = %v", err)
				return false
			}
			if result.Moved() != n {
				return false
			}
			for _, rel := range want {
				if _, err := os.Stat(filepath.Join(folder, rel)); err != nil {
					t.Logf("missing %s", rel)
					return false
				}
			}
			return len(testutil.TopLevelFiles(t, folder)) == 0
		},
		gen.SliceOfN(8, gen.IntRange(0, len(exts)-1)),
		gen.SliceOfN(8, gen.IntRange(0, len(sizes)-1)),
	))

	properties.TestingRun(t)
}

package progress

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"selfcinema/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watch-progress.json")
	return NewStore(path, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestSaveThenGet(t *testing.T) {
	store := newTestStore(t)

	store.Save("ep1", 120, 1800)

	entry, err := store.Get("ep1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := 120.0 / 1800.0 * 100
	if math.Abs(entry.Progress-want) > 0.001 {
		t.Fatalf("progress = %v, want %v", entry.Progress, want)
	}
	if entry.Completed {
		t.Fatalf("completed should be false at %v%%", entry.Progress)
	}
	if entry.CurrentTime != 120 || entry.Duration != 1800 {
		t.Fatalf("entry mismatch: %+v", entry)
	}
}

func TestSaveClampsProgress(t *testing.T) {
	store := newTestStore(t)

	store.Save("over", 2000, 1800)
	entry, err := store.Get("over")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Progress != 100 {
		t.Fatalf("progress should clamp to 100, got %v", entry.Progress)
	}
	if !entry.Completed {
		t.Fatalf("100%% must be completed")
	}

	store.Save("neg", -5, 1800)
	entry, err = store.Get("neg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Progress != 0 {
		t.Fatalf("progress should clamp to 0, got %v", entry.Progress)
	}
}

func TestSaveCompletedAbove90(t *testing.T) {
	store := newTestStore(t)

	store.Save("ep", 95, 100)
	entry, _ := store.Get("ep")
	if !entry.Completed {
		t.Fatalf("95%% should be completed")
	}

	store.Save("ep", 90, 100)
	entry, _ = store.Get("ep")
	if entry.Completed {
		t.Fatalf("exactly 90%% should not be completed")
	}
}

func TestSaveOverwritesNotDuplicates(t *testing.T) {
	store := newTestStore(t)

	store.Save("ep1", 100, 1000)
	store.Save("ep1", 100, 1000)

	all := store.GetAll()
	if len(all) != 1 {
		t.Fatalf("expected one entry, got %d", len(all))
	}
}

func TestStatusClassification(t *testing.T) {
	store := newTestStore(t)

	if got := store.Status("missing"); got != domain.WatchUnwatched {
		t.Fatalf("missing entry status = %v", got)
	}

	store.Save("zero", 0, 100)
	if got := store.Status("zero"); got != domain.WatchUnwatched {
		t.Fatalf("0%% status = %v", got)
	}

	store.Save("half", 50, 100)
	if got := store.Status("half"); got != domain.WatchWatching {
		t.Fatalf("50%% status = %v", got)
	}

	store.Save("done", 95, 100)
	if got := store.Status("done"); got != domain.WatchCompleted {
		t.Fatalf("95%% status = %v", got)
	}
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCorruptFileTreatedAsEmpty(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	all := store.GetAll()
	if len(all) != 0 {
		t.Fatalf("corrupt file should read as empty, got %d entries", len(all))
	}

	// A save over the corrupt file must succeed and replace it.
	store.Save("ep1", 10, 100)
	if _, err := store.Get("ep1"); err != nil {
		t.Fatalf("Get after corrupt overwrite: %v", err)
	}
}

func TestClearAndClearAll(t *testing.T) {
	store := newTestStore(t)
	store.Save("a", 10, 100)
	store.Save("b", 20, 100)

	store.Clear("a")
	if _, err := store.Get("a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cleared entry still present")
	}
	if _, err := store.Get("b"); err != nil {
		t.Fatalf("unrelated entry removed: %v", err)
	}

	store.ClearAll()
	if len(store.GetAll()) != 0 {
		t.Fatalf("ClearAll left entries behind")
	}
}

func TestListRecentOrdering(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(2 * time.Hour), base.Add(time.Hour)}
	i := 0
	store.now = func() time.Time { t := times[i]; i++; return t }

	store.Save("oldest", 10, 100)
	store.Save("newest", 10, 100)
	store.Save("middle", 10, 100)

	recent := store.ListRecent(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].EpisodeID != "newest" || recent[1].EpisodeID != "middle" {
		t.Fatalf("wrong ordering: %s, %s", recent[0].EpisodeID, recent[1].EpisodeID)
	}
}

func TestSaveZeroDuration(t *testing.T) {
	store := newTestStore(t)
	store.Save("ep", 10, 0)
	entry, err := store.Get("ep")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Progress != 0 || entry.Completed {
		t.Fatalf("zero duration should yield zero progress: %+v", entry)
	}
}

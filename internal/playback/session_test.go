package playback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"selfcinema/internal/domain"
	"selfcinema/internal/progress"
)

type fakeProber struct {
	mu    sync.Mutex
	err   error
	block chan struct{} // when set, Probe waits on it or ctx
	calls int
}

func (p *fakeProber) Probe(ctx context.Context, src string) error {
	p.mu.Lock()
	p.calls++
	block := p.block
	err := p.err
	p.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

type fakePlayer struct {
	mu        sync.Mutex
	media     *Media
	seeks     []float64
	destroyed bool
}

func (p *fakePlayer) OnReady(fn func()) { fn() }
func (p *fakePlayer) Seek(seconds float64) {
	p.mu.Lock()
	p.seeks = append(p.seeks, seconds)
	p.mu.Unlock()
	p.media.Seek(seconds)
}
func (p *fakePlayer) CurrentTime() float64 { return p.media.CurrentTime() }
func (p *fakePlayer) Duration() float64    { return p.media.Duration() }
func (p *fakePlayer) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = true
	return nil
}

func (p *fakePlayer) seekCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seeks)
}

type fakePlayerFactory struct {
	err  error
	last *fakePlayer
}

func (f *fakePlayerFactory) New(m *Media, cfg PlayerConfig) (Player, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.last = &fakePlayer{media: m}
	return f.last, nil
}

func newTestStore(t *testing.T) *progress.Store {
	t.Helper()
	return progress.NewStore(filepath.Join(t.TempDir(), "watch-progress.json"), testLogger())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T, prober Prober, players PlayerFactory) (*Manager, *progress.Store) {
	t.Helper()
	store := newTestStore(t)
	media := NewMedia()
	backends := &BackendFactory{Prober: prober, Logger: testLogger()}
	return NewManager(media, backends, players, store, 768, testLogger()), store
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEmptySourceFailsImmediately(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeProber{}, &fakePlayerFactory{})

	session := mgr.Play(SessionParams{EpisodeID: "ep1", Source: ""})
	if got := session.State(); got != SessionError {
		t.Fatalf("state = %s, want error", got)
	}
	perr := session.Err()
	if perr == nil || perr.Kind != domain.PlaybackNoSource {
		t.Fatalf("error = %+v, want no_source", perr)
	}
}

func TestPlayReachesPlayingAndSavesProgress(t *testing.T) {
	players := &fakePlayerFactory{}
	mgr, store := newTestManager(t, &fakeProber{}, players)

	session := mgr.Play(SessionParams{EpisodeID: "ep1", Source: "http://media/ep1.mp4"})
	waitFor(t, "playing state", func() bool { return session.State() == SessionPlaying })

	if got := session.Snapshot().Backend; got != BackendDirect {
		t.Fatalf("backend = %s, want direct", got)
	}
	if got := mgr.Media().Source(); got != "http://media/ep1.mp4" {
		t.Fatalf("media source = %q", got)
	}

	mgr.Media().Dispatch(EventTimeUpdate, MediaUpdate{CurrentTime: 30, Duration: 120})
	rec, err := store.Get("ep1")
	if err != nil {
		t.Fatalf("progress not saved: %v", err)
	}
	if rec.Progress != 25 {
		t.Fatalf("progress = %v, want 25", rec.Progress)
	}
}

func TestEndedMarksCompletedAndEndsSession(t *testing.T) {
	players := &fakePlayerFactory{}
	mgr, store := newTestManager(t, &fakeProber{}, players)

	session := mgr.Play(SessionParams{EpisodeID: "ep1", Source: "http://media/ep1.mp4"})
	waitFor(t, "playing state", func() bool { return session.State() == SessionPlaying })

	mgr.Media().Dispatch(EventEnded, MediaUpdate{CurrentTime: 120, Duration: 120})
	waitFor(t, "ended state", func() bool { return session.State() == SessionEnded })

	rec, err := store.Get("ep1")
	if err != nil {
		t.Fatalf("progress not saved: %v", err)
	}
	if !rec.Completed || rec.Progress != 100 {
		t.Fatalf("record = %+v, want completed at 100%%", rec)
	}
}

func TestResumeSeeksWhenProgressStored(t *testing.T) {
	players := &fakePlayerFactory{}
	mgr, store := newTestManager(t, &fakeProber{}, players)
	store.Save("ep1", 120, 3600)

	session := mgr.Play(SessionParams{EpisodeID: "ep1", Source: "http://media/ep1.mp4"})
	waitFor(t, "playing state", func() bool { return session.State() == SessionPlaying })

	player := players.last
	waitFor(t, "resume seek", func() bool { return player.seekCount() == 1 })
	player.mu.Lock()
	got := player.seeks[0]
	player.mu.Unlock()
	if got != 120 {
		t.Fatalf("seeked to %v, want 120", got)
	}
}

func TestNoResumeSeekNearStartOrUnwatched(t *testing.T) {
	for name, setup := range map[string]func(*progress.Store){
		"unwatched":  func(*progress.Store) {},
		"near start": func(s *progress.Store) { s.Save("ep1", 8, 3600) },
	} {
		t.Run(name, func(t *testing.T) {
			players := &fakePlayerFactory{}
			mgr, store := newTestManager(t, &fakeProber{}, players)
			setup(store)

			session := mgr.Play(SessionParams{EpisodeID: "ep1", Source: "http://media/ep1.mp4"})
			waitFor(t, "playing state", func() bool { return session.State() == SessionPlaying })
			if n := players.last.seekCount(); n != 0 {
				t.Fatalf("player seeked %d times, want 0", n)
			}
		})
	}
}

func TestSupersededSessionWritesNoProgress(t *testing.T) {
	players := &fakePlayerFactory{}
	mgr, store := newTestManager(t, &fakeProber{}, players)

	first := mgr.Play(SessionParams{EpisodeID: "ep1", Source: "http://media/ep1.mp4"})
	waitFor(t, "playing state", func() bool { return first.State() == SessionPlaying })

	second := mgr.Play(SessionParams{EpisodeID: "ep2", Source: "http://media/ep2.mp4"})
	waitFor(t, "playing state", func() bool { return second.State() == SessionPlaying })

	// Only the live session's episode may record this position.
	mgr.Media().Dispatch(EventTimeUpdate, MediaUpdate{CurrentTime: 30, Duration: 120})
	if _, err := store.Get("ep1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("superseded session wrote progress: %v", err)
	}
	if _, err := store.Get("ep2"); err != nil {
		t.Fatalf("live session progress missing: %v", err)
	}
}

func TestCloseDuringProbeWritesNoProgress(t *testing.T) {
	block := make(chan struct{})
	prober := &fakeProber{block: block}
	players := &fakePlayerFactory{}
	mgr, store := newTestManager(t, prober, players)

	session := mgr.Play(SessionParams{EpisodeID: "ep1", Source: "http://media/ep1.mp4"})
	waitFor(t, "probing state", func() bool { return session.State() == SessionProbing })

	mgr.Stop()
	close(block)
	<-session.Done()

	mgr.Media().Dispatch(EventTimeUpdate, MediaUpdate{CurrentTime: 30, Duration: 120})
	if _, err := store.Get("ep1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("closed session wrote progress: %v", err)
	}
}

func TestNativeMediaErrorFailsSession(t *testing.T) {
	players := &fakePlayerFactory{}
	mgr, _ := newTestManager(t, &fakeProber{}, players)

	session := mgr.Play(SessionParams{EpisodeID: "ep1", Source: "http://media/ep1.mp4"})
	waitFor(t, "playing state", func() bool { return session.State() == SessionPlaying })

	mgr.Media().Dispatch(EventError, MediaUpdate{ErrorCode: domain.MediaErrUnsupported})
	waitFor(t, "error state", func() bool { return session.State() == SessionError })

	perr := session.Err()
	if perr.Kind != domain.PlaybackNativeMediaFault {
		t.Fatalf("kind = %s, want native_media_fault", perr.Kind)
	}
	if perr.Detail != "unsupported media format" {
		t.Fatalf("detail = %q", perr.Detail)
	}
	if perr.Source != "http://media/ep1.mp4" {
		t.Fatalf("source = %q, want offending URL", perr.Source)
	}
}

func TestPlayerInitFailureFallsBackToNativeControls(t *testing.T) {
	players := &fakePlayerFactory{err: errors.New("script load failed")}
	mgr, _ := newTestManager(t, &fakeProber{}, players)

	session := mgr.Play(SessionParams{EpisodeID: "ep1", Source: "http://media/ep1.mp4"})
	waitFor(t, "error state", func() bool { return session.State() == SessionError })

	if perr := session.Err(); perr.Kind != domain.PlaybackPlayerInitFailed {
		t.Fatalf("kind = %s, want player_init_failed", perr.Kind)
	}
	if !mgr.Media().Controls() {
		t.Fatalf("native controls should be enabled after player failure")
	}
	if got := mgr.Media().Source(); got != "http://media/ep1.mp4" {
		t.Fatalf("source should remain attached for native playback, got %q", got)
	}
}

func TestProbeFailureSurfacesError(t *testing.T) {
	prober := &fakeProber{err: &domain.PlaybackError{
		Kind:   domain.PlaybackNativeMediaFault,
		Detail: "timeout loading media source",
		Source: "http://media/ep1.mp4",
	}}
	mgr, _ := newTestManager(t, prober, &fakePlayerFactory{})

	session := mgr.Play(SessionParams{EpisodeID: "ep1", Source: "http://media/ep1.mp4"})
	waitFor(t, "error state", func() bool { return session.State() == SessionError })

	if perr := session.Err(); perr.Detail != "timeout loading media source" {
		t.Fatalf("error = %+v", perr)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	players := &fakePlayerFactory{}
	mgr, _ := newTestManager(t, &fakeProber{}, players)

	session := mgr.Play(SessionParams{EpisodeID: "ep1", Source: "http://media/ep1.mp4"})
	waitFor(t, "playing state", func() bool { return session.State() == SessionPlaying })

	session.Close()
	session.Close()
	<-session.Done()

	players.last.mu.Lock()
	destroyed := players.last.destroyed
	players.last.mu.Unlock()
	if !destroyed {
		t.Fatalf("player should be destroyed on close")
	}
}

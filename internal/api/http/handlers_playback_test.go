package apihttp

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"selfcinema/internal/domain"
	"selfcinema/internal/playback"
	"selfcinema/internal/progress"
)

func makePlaybackServer(t *testing.T) (*Server, *progress.Store) {
	t.Helper()
	store := progress.NewStore(filepath.Join(t.TempDir(), "watch-progress.json"), discardLogger())
	mgr := playback.NewManager(
		playback.NewMedia(),
		&playback.BackendFactory{Logger: discardLogger()},
		playback.DefaultPlayerFactory{},
		store,
		768,
		discardLogger(),
	)
	s := NewServer(&fakeCatalog{},
		WithSessionManager(mgr),
		WithProgressStore(store),
		WithLogger(discardLogger()),
	)
	t.Cleanup(s.Close)
	return s, store
}

func startSession(t *testing.T, s *Server, episodeID, source string) playback.SessionSnapshot {
	t.Helper()
	body, _ := json.Marshal(startPlaybackRequest{
		EpisodeID: domain.EpisodeID(episodeID),
		Source:    source,
	})
	rec := doRequest(s, http.MethodPost, "/playback/session", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var snap playback.SessionSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func waitSessionState(t *testing.T, s *Server, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		rec := doRequest(s, http.MethodGet, "/playback/session", nil)
		if rec.Code == http.StatusOK {
			var snap playback.SessionSnapshot
			_ = json.Unmarshal(rec.Body.Bytes(), &snap)
			if snap.State == want {
				return
			}
		}
		select {
		case <-deadline:
			t.Fatalf("session never reached %s", want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStartPlaybackWithoutSourceReturnsError(t *testing.T) {
	s, _ := makePlaybackServer(t)

	snap := startSession(t, s, "ep1", "")
	if snap.State != "error" {
		t.Fatalf("state = %s, want error", snap.State)
	}
	if snap.Error == nil || snap.Error.Kind != domain.PlaybackNoSource {
		t.Fatalf("error = %+v, want no_source", snap.Error)
	}
}

func TestStartPlaybackRequiresEpisodeID(t *testing.T) {
	s, _ := makePlaybackServer(t)

	body, _ := json.Marshal(startPlaybackRequest{Source: "http://media/ep1.mp4"})
	rec := doRequest(s, http.MethodPost, "/playback/session", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetSessionWithoutLiveSession(t *testing.T) {
	s, _ := makePlaybackServer(t)

	rec := doRequest(s, http.MethodGet, "/playback/session", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestEventInjectionPersistsProgress(t *testing.T) {
	s, store := makePlaybackServer(t)

	startSession(t, s, "ep1", "http://media/ep1.mp4")
	waitSessionState(t, s, "playing")

	body, _ := json.Marshal(mediaEventRequest{Type: "timeupdate", CurrentTime: 60, Duration: 240})
	rec := doRequest(s, http.MethodPost, "/playback/session/events", body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("event status = %d", rec.Code)
	}

	recGot, err := store.Get("ep1")
	if err != nil {
		t.Fatalf("progress not saved: %v", err)
	}
	if recGot.Progress != 25 {
		t.Fatalf("progress = %v, want 25", recGot.Progress)
	}
}

func TestEndedEventCompletesSession(t *testing.T) {
	s, store := makePlaybackServer(t)

	startSession(t, s, "ep1", "http://media/ep1.mp4")
	waitSessionState(t, s, "playing")

	body, _ := json.Marshal(mediaEventRequest{Type: "ended", CurrentTime: 240, Duration: 240})
	doRequest(s, http.MethodPost, "/playback/session/events", body)
	waitSessionState(t, s, "ended")

	rec, err := store.Get("ep1")
	if err != nil {
		t.Fatalf("progress not saved: %v", err)
	}
	if !rec.Completed {
		t.Fatalf("episode should be completed, got %+v", rec)
	}
}

func TestNativeErrorEventFailsSession(t *testing.T) {
	s, _ := makePlaybackServer(t)

	startSession(t, s, "ep1", "http://media/ep1.mp4")
	waitSessionState(t, s, "playing")

	body, _ := json.Marshal(mediaEventRequest{Type: "error", ErrorCode: int(domain.MediaErrUnsupported)})
	doRequest(s, http.MethodPost, "/playback/session/events", body)
	waitSessionState(t, s, "error")

	rec := doRequest(s, http.MethodGet, "/playback/session", nil)
	var snap playback.SessionSnapshot
	_ = json.Unmarshal(rec.Body.Bytes(), &snap)
	if snap.Error == nil || snap.Error.Kind != domain.PlaybackNativeMediaFault {
		t.Fatalf("error = %+v, want native_media_fault", snap.Error)
	}
}

func TestUnknownEventTypeRejected(t *testing.T) {
	s, _ := makePlaybackServer(t)

	body, _ := json.Marshal(mediaEventRequest{Type: "volumechange"})
	rec := doRequest(s, http.MethodPost, "/playback/session/events", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSeekRequiresLiveSession(t *testing.T) {
	s, _ := makePlaybackServer(t)

	body, _ := json.Marshal(seekRequest{Seconds: 30})
	rec := doRequest(s, http.MethodPost, "/playback/session/seek", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSeekMovesPlayback(t *testing.T) {
	s, _ := makePlaybackServer(t)

	startSession(t, s, "ep1", "http://media/ep1.mp4")
	waitSessionState(t, s, "playing")

	body, _ := json.Marshal(seekRequest{Seconds: 42})
	rec := doRequest(s, http.MethodPost, "/playback/session/seek", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap playback.SessionSnapshot
	_ = json.Unmarshal(rec.Body.Bytes(), &snap)
	if snap.CurrentTime != 42 {
		t.Fatalf("current_time = %v, want 42", snap.CurrentTime)
	}
}

func TestStopSessionReturnsNoContent(t *testing.T) {
	s, _ := makePlaybackServer(t)

	startSession(t, s, "ep1", "http://media/ep1.mp4")
	waitSessionState(t, s, "playing")

	rec := doRequest(s, http.MethodDelete, "/playback/session", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	rec = doRequest(s, http.MethodGet, "/playback/session", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("session still live after stop: %d", rec.Code)
	}
}

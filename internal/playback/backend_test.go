package playback

import (
	"context"
	"errors"
	"sync"
	"testing"

	"selfcinema/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		src  string
		want BackendKind
	}{
		{"http://cdn/stream/index.m3u8", BackendHLS},
		{"http://cdn/stream/index.M3U8?token=abc", BackendHLS},
		{"http://cdn/live.m3u8/segment", BackendHLS},
		{"http://cdn/movie.mp4", BackendDirect},
		{"http://cdn/movie.webm", BackendDirect},
		{"http://cdn/movie.mkv", BackendTranscode},
		{"http://cdn/movie.MKV", BackendTranscode},
		{"http://cdn/movie.avi", BackendTranscode},
		{"http://cdn/movie", BackendDirect},
	}
	for _, tc := range cases {
		if got := Classify(tc.src); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.src, got, tc.want)
		}
	}
}

type fakeEngine struct {
	mu         sync.Mutex
	supported  bool
	loadErr    error
	attachErr  error
	recoverErr error
	onFault    func(StreamFault)
	startLoads int
	recoveries int
	destroyed  bool
	loadedSrc  string
	attachedTo *Media
}

func (e *fakeEngine) Supported() bool { return e.supported }
func (e *fakeEngine) LoadSource(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadedSrc = src
	return e.loadErr
}
func (e *fakeEngine) AttachMedia(m *Media) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attachedTo = m
	return e.attachErr
}
func (e *fakeEngine) OnFault(fn func(StreamFault)) { e.onFault = fn }
func (e *fakeEngine) StartLoad() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startLoads++
}
func (e *fakeEngine) RecoverMedia() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recoveries++
	return e.recoverErr
}
func (e *fakeEngine) Destroy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyed = true
	return nil
}

func TestSelectFallsBackWhenHLSUnsupported(t *testing.T) {
	factory := &BackendFactory{
		NewHLSEngine: func() HLSEngine { return &fakeEngine{supported: false} },
		Logger:       testLogger(),
	}
	backend := factory.Select("http://cdn/stream/index.m3u8")
	if backend.Kind() != BackendDirect {
		t.Fatalf("kind = %s, want direct fallback", backend.Kind())
	}
}

func TestSelectUsesHLSWhenSupported(t *testing.T) {
	factory := &BackendFactory{
		NewHLSEngine: func() HLSEngine { return &fakeEngine{supported: true} },
		Logger:       testLogger(),
	}
	backend := factory.Select("http://cdn/stream/index.m3u8")
	if backend.Kind() != BackendHLS {
		t.Fatalf("kind = %s, want hls", backend.Kind())
	}
}

func TestHLSFatalNetworkFaultRestartsLoad(t *testing.T) {
	engine := &fakeEngine{supported: true}
	newHLSBackend(engine, testLogger())

	engine.onFault(StreamFault{Type: FaultNetwork, Fatal: true, Detail: "manifest fetch failed"})
	if engine.startLoads != 1 {
		t.Fatalf("startLoads = %d, want 1", engine.startLoads)
	}
}

func TestHLSFatalMediaFaultRecoversDecoder(t *testing.T) {
	engine := &fakeEngine{supported: true}
	newHLSBackend(engine, testLogger())

	engine.onFault(StreamFault{Type: FaultMedia, Fatal: true, Detail: "buffer stall"})
	if engine.recoveries != 1 {
		t.Fatalf("recoveries = %d, want 1", engine.recoveries)
	}
}

func TestHLSUnrecoverableFaultEscalates(t *testing.T) {
	engine := &fakeEngine{supported: true}
	backend := newHLSBackend(engine, testLogger())

	var escalated StreamFault
	backend.OnFatalFault(func(f StreamFault) { escalated = f })

	engine.onFault(StreamFault{Type: FaultOther, Fatal: true, Detail: "mux error"})
	if !engine.destroyed {
		t.Fatalf("engine should be destroyed on unrecoverable fault")
	}
	if escalated.Detail != "mux error" {
		t.Fatalf("fault not escalated: %+v", escalated)
	}
}

func TestHLSNonFatalFaultIgnored(t *testing.T) {
	engine := &fakeEngine{supported: true}
	backend := newHLSBackend(engine, testLogger())

	backend.OnFatalFault(func(StreamFault) { t.Fatal("non-fatal fault escalated") })
	engine.onFault(StreamFault{Type: FaultNetwork, Fatal: false, Detail: "fragment retry"})
	if engine.startLoads != 0 || engine.recoveries != 0 {
		t.Fatalf("non-fatal fault triggered recovery")
	}
}

type fakeTranscoder struct {
	url string
	err error
}

func (f fakeTranscoder) Transcode(ctx context.Context, src string) (string, error) {
	return f.url, f.err
}

func TestTranscodeBackendUsesConvertedURL(t *testing.T) {
	backend := newTranscodeBackend(fakeTranscoder{url: "data/blobs/abc.mp4"}, &fakeProber{}, testLogger())

	if err := backend.Load(context.Background(), "http://cdn/movie.mkv"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	media := NewMedia()
	if err := backend.Attach(media); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if got := media.Source(); got != "data/blobs/abc.mp4" {
		t.Fatalf("source = %q, want transcoded output", got)
	}
}

func TestTranscodeFailureFallsBackToDirectSource(t *testing.T) {
	backend := newTranscodeBackend(fakeTranscoder{err: errors.New("ffmpeg exited 1")}, &fakeProber{}, testLogger())

	if err := backend.Load(context.Background(), "http://cdn/movie.mkv"); err != nil {
		t.Fatalf("Load should fall back to reachable original: %v", err)
	}
	media := NewMedia()
	_ = backend.Attach(media)
	if got := media.Source(); got != "http://cdn/movie.mkv" {
		t.Fatalf("source = %q, want original URL", got)
	}
}

func TestTranscodeFailureWithDeadSourceErrors(t *testing.T) {
	prober := &fakeProber{err: errors.New("connection refused")}
	backend := newTranscodeBackend(fakeTranscoder{err: errors.New("ffmpeg exited 1")}, prober, testLogger())

	err := backend.Load(context.Background(), "http://cdn/movie.mkv")
	var perr *domain.PlaybackError
	if !errors.As(err, &perr) || perr.Kind != domain.PlaybackTranscodeFailed {
		t.Fatalf("err = %v, want transcode_failed", err)
	}
}

func TestHLSBackendDestroyIdempotent(t *testing.T) {
	engine := &fakeEngine{supported: true}
	backend := newHLSBackend(engine, testLogger())

	if err := backend.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := backend.Destroy(); err != nil {
		t.Fatalf("second Destroy: %v", err)
	}
}

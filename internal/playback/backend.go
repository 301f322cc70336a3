package playback

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"
)

// BackendKind identifies the decode path selected for a source.
type BackendKind string

const (
	BackendDirect    BackendKind = "direct"
	BackendHLS       BackendKind = "hls"
	BackendTranscode BackendKind = "transcode"
)

// Backend is the adapter over one decode path. Load prepares the source
// (probe, manifest fetch, transcode), Attach assigns the playable result to
// the media element, and Destroy releases any held resources. Destroy is
// idempotent and must not fail on an already disposed backend.
type Backend interface {
	Kind() BackendKind
	Load(ctx context.Context, src string) error
	Attach(m *Media) error
	Destroy() error
}

// FaultReporter is implemented by backends that can fail after Load, while
// playback is already running (the adaptive-streaming path).
type FaultReporter interface {
	OnFatalFault(fn func(StreamFault))
}

// Classify inspects a source URL and picks the decode path: streaming
// manifests go to the adaptive backend, containers the element cannot play
// go through the transcoder, everything else is assigned directly.
func Classify(src string) BackendKind {
	lower := strings.ToLower(src)
	if u, err := url.Parse(lower); err == nil && u.Path != "" {
		lower = u.Path
	}
	if strings.Contains(lower, ".m3u8") {
		return BackendHLS
	}
	switch path.Ext(lower) {
	case ".mkv", ".avi", ".flv", ".wmv":
		return BackendTranscode
	}
	return BackendDirect
}

// BackendFactory builds backends from their collaborators. A nil HLS engine
// constructor or a constructor returning an unsupported engine degrades the
// adaptive path to direct assignment; a nil transcoder degrades the
// transcode path the same way.
type BackendFactory struct {
	Prober       Prober
	NewHLSEngine func() HLSEngine
	Transcoder   Transcoder
	Logger       *slog.Logger
}

func (f *BackendFactory) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

// Select returns the backend for a source. The returned backend's Kind may
// differ from Classify's verdict when a decode path is unavailable at
// runtime and direct assignment is the fallback.
func (f *BackendFactory) Select(src string) Backend {
	switch Classify(src) {
	case BackendHLS:
		if f.NewHLSEngine != nil {
			if engine := f.NewHLSEngine(); engine != nil && engine.Supported() {
				return newHLSBackend(engine, f.logger())
			}
		}
		f.logger().Info("adaptive streaming unsupported, using direct source", slog.String("src", src))
		return newDirectBackend(f.Prober, f.logger())
	case BackendTranscode:
		if f.Transcoder != nil {
			return newTranscodeBackend(f.Transcoder, f.Prober, f.logger())
		}
		f.logger().Info("no transcoder configured, using direct source", slog.String("src", src))
		return newDirectBackend(f.Prober, f.logger())
	default:
		return newDirectBackend(f.Prober, f.logger())
	}
}

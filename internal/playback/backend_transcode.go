package playback

import (
	"context"
	"log/slog"

	"selfcinema/internal/domain"
)

// Transcoder converts a source the media element cannot decode into a
// playable URL. Implementations may cache results by source.
type Transcoder interface {
	Transcode(ctx context.Context, src string) (playableURL string, err error)
}

// transcodeBackend runs the source through the transcoder. If the transcode
// fails but the original source is itself reachable, it falls back to
// direct assignment and lets the element try its luck; the hard error is
// reserved for the case where both paths are dead.
type transcodeBackend struct {
	transcoder Transcoder
	prober     Prober
	logger     *slog.Logger
	src        string
}

func newTranscodeBackend(transcoder Transcoder, prober Prober, logger *slog.Logger) *transcodeBackend {
	return &transcodeBackend{transcoder: transcoder, prober: prober, logger: logger}
}

func (b *transcodeBackend) Kind() BackendKind { return BackendTranscode }

func (b *transcodeBackend) Load(ctx context.Context, src string) error {
	playable, err := b.transcoder.Transcode(ctx, src)
	if err == nil {
		b.src = playable
		return nil
	}

	b.logger.Warn("transcode failed, probing original source",
		slog.String("src", src),
		slog.Any("error", err),
	)
	if b.prober != nil {
		if probeErr := b.prober.Probe(ctx, src); probeErr == nil {
			b.src = src
			return nil
		}
	}
	return &domain.PlaybackError{
		Kind:   domain.PlaybackTranscodeFailed,
		Detail: "failed to convert media for playback",
		Source: src,
		Err:    err,
	}
}

func (b *transcodeBackend) Attach(m *Media) error {
	m.SetSource(b.src)
	return nil
}

func (b *transcodeBackend) Destroy() error { return nil }

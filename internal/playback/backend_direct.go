package playback

import (
	"context"
	"log/slog"
)

// directBackend assigns the source straight to the media element and relies
// on the element's own decoder. A nil prober skips the reachability check.
type directBackend struct {
	prober Prober
	logger *slog.Logger
	src    string
}

func newDirectBackend(prober Prober, logger *slog.Logger) *directBackend {
	return &directBackend{prober: prober, logger: logger}
}

func (b *directBackend) Kind() BackendKind { return BackendDirect }

func (b *directBackend) Load(ctx context.Context, src string) error {
	if b.prober != nil {
		if err := b.prober.Probe(ctx, src); err != nil {
			return err
		}
	}
	b.src = src
	return nil
}

func (b *directBackend) Attach(m *Media) error {
	m.SetSource(b.src)
	return nil
}

func (b *directBackend) Destroy() error { return nil }

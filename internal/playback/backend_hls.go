package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"selfcinema/internal/domain"
)

// StreamFaultType classifies adaptive-streaming engine faults.
type StreamFaultType string

const (
	FaultNetwork StreamFaultType = "network"
	FaultMedia   StreamFaultType = "media"
	FaultOther   StreamFaultType = "other"
)

// StreamFault is one error event raised by the streaming engine.
type StreamFault struct {
	Type   StreamFaultType
	Detail string
	Fatal  bool
}

// HLSEngine is the adapter over the adaptive-streaming library. LoadSource
// and AttachMedia mirror the library's two-phase setup; StartLoad and
// RecoverMedia are its built-in recovery actions.
type HLSEngine interface {
	Supported() bool
	LoadSource(src string) error
	AttachMedia(m *Media) error
	OnFault(fn func(StreamFault))
	StartLoad()
	RecoverMedia() error
	Destroy() error
}

// hlsBackend wraps an HLSEngine and applies the standard recovery ladder:
// fatal network faults restart loading, fatal media faults run decoder
// recovery, anything else fatal tears the engine down and escalates to the
// session as a streaming fault.
type hlsBackend struct {
	engine HLSEngine
	logger *slog.Logger

	mu        sync.Mutex
	src       string
	onFatal   func(StreamFault)
	destroyed bool
}

func newHLSBackend(engine HLSEngine, logger *slog.Logger) *hlsBackend {
	b := &hlsBackend{engine: engine, logger: logger}
	engine.OnFault(b.handleFault)
	return b
}

func (b *hlsBackend) Kind() BackendKind { return BackendHLS }

func (b *hlsBackend) Load(ctx context.Context, src string) error {
	b.mu.Lock()
	b.src = src
	b.mu.Unlock()
	if err := b.engine.LoadSource(src); err != nil {
		return &domain.PlaybackError{
			Kind:   domain.PlaybackStreamingFault,
			Detail: "failed to load stream manifest",
			Source: src,
			Err:    err,
		}
	}
	return nil
}

func (b *hlsBackend) Attach(m *Media) error {
	if err := b.engine.AttachMedia(m); err != nil {
		b.mu.Lock()
		src := b.src
		b.mu.Unlock()
		return &domain.PlaybackError{
			Kind:   domain.PlaybackStreamingFault,
			Detail: "failed to attach stream to media element",
			Source: src,
			Err:    err,
		}
	}
	return nil
}

// OnFatalFault registers the session callback invoked when the recovery
// ladder is exhausted.
func (b *hlsBackend) OnFatalFault(fn func(StreamFault)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onFatal = fn
}

func (b *hlsBackend) handleFault(fault StreamFault) {
	if !fault.Fatal {
		b.logger.Debug("non-fatal stream fault",
			slog.String("type", string(fault.Type)),
			slog.String("detail", fault.Detail),
		)
		return
	}

	switch fault.Type {
	case FaultNetwork:
		b.logger.Warn("fatal stream network fault, restarting load", slog.String("detail", fault.Detail))
		b.engine.StartLoad()
	case FaultMedia:
		b.logger.Warn("fatal stream media fault, recovering decoder", slog.String("detail", fault.Detail))
		if err := b.engine.RecoverMedia(); err != nil {
			b.escalate(StreamFault{
				Type:   FaultMedia,
				Detail: fmt.Sprintf("decoder recovery failed: %s", fault.Detail),
				Fatal:  true,
			})
		}
	default:
		b.logger.Error("unrecoverable stream fault", slog.String("detail", fault.Detail))
		if err := b.engine.Destroy(); err != nil {
			b.logger.Warn("stream engine teardown failed", slog.Any("error", err))
		}
		b.escalate(fault)
	}
}

func (b *hlsBackend) escalate(fault StreamFault) {
	b.mu.Lock()
	fn := b.onFatal
	b.mu.Unlock()
	if fn != nil {
		fn(fault)
	}
}

func (b *hlsBackend) Destroy() error {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return nil
	}
	b.destroyed = true
	b.onFatal = nil
	b.mu.Unlock()
	return b.engine.Destroy()
}

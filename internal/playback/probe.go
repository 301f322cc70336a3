package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"selfcinema/internal/domain"
)

// Prober checks that a source URL is reachable before playback is attempted.
type Prober interface {
	Probe(ctx context.Context, src string) error
}

// HTTPProber issues a one-byte ranged GET against the source. Servers that
// ignore the Range header still answer fast because the body is discarded
// unread.
type HTTPProber struct {
	httpc   *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewHTTPProber(timeout time.Duration, logger *slog.Logger) *HTTPProber {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPProber{
		httpc: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeout: timeout,
		logger:  logger,
	}
}

func (p *HTTPProber) Probe(ctx context.Context, src string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return &domain.PlaybackError{
			Kind:   domain.PlaybackNativeMediaFault,
			Detail: "invalid media source URL",
			Source: src,
			Err:    err,
		}
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := p.httpc.Do(req)
	if err != nil {
		detail := "network error while fetching media"
		if errors.Is(err, context.DeadlineExceeded) {
			detail = "timeout loading media source"
		}
		p.logger.Warn("source probe failed", slog.String("src", src), slog.Any("error", err))
		return &domain.PlaybackError{
			Kind:   domain.PlaybackNativeMediaFault,
			Detail: detail,
			Source: src,
			Err:    err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		p.logger.Warn("source probe rejected",
			slog.String("src", src),
			slog.Int("status", resp.StatusCode),
		)
		return &domain.PlaybackError{
			Kind:   domain.PlaybackNativeMediaFault,
			Detail: fmt.Sprintf("media source returned %d", resp.StatusCode),
			Source: src,
		}
	}
	return nil
}

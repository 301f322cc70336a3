package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"selfcinema/internal/api/client"
	apihttp "selfcinema/internal/api/http"
	"selfcinema/internal/app"
	"selfcinema/internal/auth"
	"selfcinema/internal/metrics"
	"selfcinema/internal/playback"
	"selfcinema/internal/progress"
	"selfcinema/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "playback-gateway")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "playback-gateway"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("apiBaseURL", cfg.APIBaseURL),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("dataDir", cfg.DataDir),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("data dir init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tokens := auth.NewTokenStore(cfg.TokenFile)
	catalog := client.New(cfg.APIBaseURL, tokens, client.WithLogger(logger))
	store := progress.NewStore(cfg.ProgressFile, logger)

	transcoder := &playback.FFmpegTranscoder{
		FFMPEGPath:  cfg.FFMPEGPath,
		FFProbePath: cfg.FFProbePath,
		BlobDir:     cfg.BlobDir,
		Timeout:     cfg.TranscodeTimeout,
		Logger:      logger,
	}
	backends := &playback.BackendFactory{
		Prober:     playback.NewHTTPProber(cfg.ProbeTimeout, logger),
		Transcoder: transcoder,
		Logger:     logger,
	}
	sessions := playback.NewManager(
		playback.NewMedia(),
		backends,
		playback.DefaultPlayerFactory{},
		store,
		cfg.NarrowViewportPx,
		logger,
	)

	handler := apihttp.NewServer(catalog,
		apihttp.WithLogger(logger),
		apihttp.WithTokenController(tokens),
		apihttp.WithProgressStore(store),
		apihttp.WithSessionManager(sessions),
		apihttp.WithAllowedOrigins(cfg.CORSAllowedOrigins),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("server started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	handler.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

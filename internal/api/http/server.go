package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"selfcinema/internal/domain"
	"selfcinema/internal/playback"
)

// CatalogClient is the slice of the REST backend the gateway proxies for the
// admin surface.
type CatalogClient interface {
	Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
	ListSeries(ctx context.Context) ([]domain.Series, error)
	CreateSeries(ctx context.Context, req domain.CreateSeriesRequest) (domain.Series, error)
	UpdateSeries(ctx context.Context, id domain.SeriesID, req domain.CreateSeriesRequest) (domain.Series, error)
	DeleteSeries(ctx context.Context, id domain.SeriesID) error
	ListEpisodes(ctx context.Context, seriesID domain.SeriesID) ([]domain.Episode, error)
	CreateEpisode(ctx context.Context, req domain.CreateEpisodeRequest) (domain.Episode, error)
	UpdateEpisode(ctx context.Context, id domain.EpisodeID, req domain.CreateEpisodeRequest) (domain.Episode, error)
	DeleteEpisode(ctx context.Context, id domain.EpisodeID) error
	ShareLink(ctx context.Context, seriesID domain.SeriesID) (domain.ShareLink, error)
}

// TokenController persists the admin credential between restarts.
type TokenController interface {
	Save(token string) error
	Clear() error
}

// ProgressStore is the local watch-progress surface exposed over HTTP.
type ProgressStore interface {
	Get(id domain.EpisodeID) (domain.WatchProgress, error)
	Save(id domain.EpisodeID, currentTime, duration float64)
	ListRecent(limit int) []domain.WatchProgress
	Status(id domain.EpisodeID) domain.WatchStatus
	Clear(id domain.EpisodeID)
	ClearAll()
}

type Server struct {
	catalog        CatalogClient
	tokens         TokenController
	progress       ProgressStore
	sessions       *playback.Manager
	allowedOrigins []string
	logger         *slog.Logger
	handler        http.Handler
	wsHub          *wsHub
}

type ServerOption func(*Server)

func WithTokenController(tokens TokenController) ServerOption {
	return func(s *Server) { s.tokens = tokens }
}

func WithProgressStore(store ProgressStore) ServerOption {
	return func(s *Server) { s.progress = store }
}

func WithSessionManager(mgr *playback.Manager) ServerOption {
	return func(s *Server) { s.sessions = mgr }
}

// WithAllowedOrigins configures the CORS allowed origins whitelist.
// When empty (default), any origin is permitted (development mode).
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) { s.allowedOrigins = origins }
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

func NewServer(catalog CatalogClient, opts ...ServerOption) *Server {
	s := &Server{catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.wsHub = newWSHub(s.logger)
	go s.wsHub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/auth/logout", s.handleLogout)
	mux.HandleFunc("/series", s.handleSeries)
	mux.HandleFunc("/series/", s.handleSeriesByID)
	mux.HandleFunc("/episodes", s.handleEpisodes)
	mux.HandleFunc("/episodes/", s.handleEpisodeByID)
	mux.HandleFunc("/playback/session", s.handlePlaybackSession)
	mux.HandleFunc("/playback/session/seek", s.handlePlaybackSeek)
	mux.HandleFunc("/playback/session/events", s.handlePlaybackEvent)
	mux.HandleFunc("/progress", s.handleProgress)
	mux.HandleFunc("/progress/", s.handleProgressByID)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "playback-gateway",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && !strings.HasPrefix(p, "/ws")
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(100, 200, metricsMiddleware(corsMiddleware(s.allowedOrigins, traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.wsHub.register <- client
	go client.writePump()
	go client.readPump()
}

// broadcastSession pushes the live session snapshot to all WebSocket clients.
func (s *Server) broadcastSession() {
	if s.sessions == nil {
		return
	}
	if session := s.sessions.Current(); session != nil {
		s.wsHub.Broadcast("playback", session.Snapshot())
	}
}

// Close stops the live playback session and disconnects WebSocket clients.
func (s *Server) Close() {
	if s.sessions != nil {
		s.sessions.Stop()
	}
	if s.wsHub != nil {
		s.wsHub.Close()
	}
}

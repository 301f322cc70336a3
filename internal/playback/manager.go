package playback

import (
	"log/slog"
	"sync"

	"selfcinema/internal/progress"
)

// Manager owns the single live playback session. Starting a new episode
// supersedes the previous session: it is fully torn down first so its
// handlers can never observe events or write progress for the new one.
type Manager struct {
	media    *Media
	backends *BackendFactory
	players  PlayerFactory
	store    *progress.Store
	narrowPx int
	logger   *slog.Logger

	mu      sync.Mutex
	current *Session
}

func NewManager(media *Media, backends *BackendFactory, players PlayerFactory, store *progress.Store, narrowPx int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		media:    media,
		backends: backends,
		players:  players,
		store:    store,
		narrowPx: narrowPx,
		logger:   logger,
	}
}

// Play starts a session for the given episode, replacing any live one.
func (m *Manager) Play(params SessionParams) *Session {
	m.mu.Lock()
	prev := m.current
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
		<-prev.Done()
	}

	session := newSession(params, m.media, m.backends, m.players, m.store, m.narrowPx, m.logger)
	m.mu.Lock()
	m.current = session
	m.mu.Unlock()

	session.Start()
	return session
}

// Current returns the live session, or nil when nothing is playing.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Stop tears down the live session, if any.
func (m *Manager) Stop() {
	m.mu.Lock()
	session := m.current
	m.current = nil
	m.mu.Unlock()

	if session != nil {
		session.Close()
		<-session.Done()
	}
}

// Media exposes the shared media element for event injection.
func (m *Manager) Media() *Media { return m.media }

package progress

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"selfcinema/internal/domain"
	"selfcinema/internal/metrics"
)

const completedThreshold = 90 // percent watched before an episode counts as completed
const watchingThreshold = 5   // percent watched before an episode counts as started

// Store persists per-episode watch positions as a single JSON mapping on
// disk. Read and write failures degrade to "no resume position": they are
// logged and swallowed, never returned to playback callers.
//
// The store is safe for concurrent use but offers no multi-process
// consistency; last writer wins.
type Store struct {
	path   string
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger, now: time.Now}
}

// GetAll returns the full episode→progress mapping. A missing or corrupt
// file is treated as an empty mapping.
func (s *Store) GetAll() map[domain.EpisodeID]domain.WatchProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the stored progress for one episode, or domain.ErrNotFound.
func (s *Store) Get(id domain.EpisodeID) (domain.WatchProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.load()[id]
	if !ok {
		return domain.WatchProgress{}, domain.ErrNotFound
	}
	return entry, nil
}

// Save computes the progress percentage and completion flag for the given
// position and overwrites the episode's entry. Persistence failures are
// logged, counted and swallowed.
func (s *Store) Save(id domain.EpisodeID, currentTime, duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pct := 0.0
	if duration > 0 {
		pct = currentTime / duration * 100
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	all := s.load()
	all[id] = domain.WatchProgress{
		EpisodeID:   id,
		CurrentTime: currentTime,
		Duration:    duration,
		Progress:    pct,
		LastWatched: s.now().UTC(),
		Completed:   pct > completedThreshold,
	}
	s.persist(all)
}

// Status derives the watch classification for one episode.
func (s *Store) Status(id domain.EpisodeID) domain.WatchStatus {
	entry, err := s.Get(id)
	if err != nil {
		return domain.WatchUnwatched
	}
	if entry.Completed {
		return domain.WatchCompleted
	}
	if entry.Progress > watchingThreshold {
		return domain.WatchWatching
	}
	return domain.WatchUnwatched
}

// Clear removes one episode's entry. Clearing an absent entry is a no-op.
func (s *Store) Clear(id domain.EpisodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	if _, ok := all[id]; !ok {
		return
	}
	delete(all, id)
	s.persist(all)
}

// ClearAll removes the whole mapping.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("progress clear failed", slog.String("path", s.path), slog.String("error", err.Error()))
	}
}

// ListRecent returns up to limit entries ordered by most recently watched.
func (s *Store) ListRecent(limit int) []domain.WatchProgress {
	if limit <= 0 {
		limit = 20
	}

	all := s.GetAll()
	entries := make([]domain.WatchProgress, 0, len(all))
	for _, entry := range all {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastWatched.After(entries[j].LastWatched)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func (s *Store) load() map[domain.EpisodeID]domain.WatchProgress {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("progress read failed", slog.String("path", s.path), slog.String("error", err.Error()))
		}
		return map[domain.EpisodeID]domain.WatchProgress{}
	}

	var all map[domain.EpisodeID]domain.WatchProgress
	if err := json.Unmarshal(data, &all); err != nil {
		s.logger.Warn("progress file corrupt, treating as empty",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return map[domain.EpisodeID]domain.WatchProgress{}
	}
	if all == nil {
		all = map[domain.EpisodeID]domain.WatchProgress{}
	}
	return all
}

func (s *Store) persist(all map[domain.EpisodeID]domain.WatchProgress) {
	data, err := json.Marshal(all)
	if err != nil {
		metrics.ProgressWriteFailuresTotal.Inc()
		s.logger.Warn("progress marshal failed", slog.String("error", err.Error()))
		return
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			metrics.ProgressWriteFailuresTotal.Inc()
			s.logger.Warn("progress dir create failed", slog.String("dir", dir), slog.String("error", err.Error()))
			return
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		metrics.ProgressWriteFailuresTotal.Inc()
		s.logger.Warn("progress write failed", slog.String("path", s.path), slog.String("error", err.Error()))
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		metrics.ProgressWriteFailuresTotal.Inc()
		s.logger.Warn("progress rename failed", slog.String("path", s.path), slog.String("error", err.Error()))
		return
	}
	metrics.ProgressWritesTotal.Inc()
}

package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"selfcinema/internal/domain"
	"selfcinema/internal/metrics"
	"selfcinema/internal/progress"
)

// SessionState is the FSM state of a playback Session.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionProbing
	SessionTranscoding
	SessionBackendSelected
	SessionPlayerReady
	SessionPlaying
	SessionEnded
	SessionError
)

var sessionStateNames = [...]string{
	"idle", "probing", "transcoding", "backend_selected",
	"player_ready", "playing", "ended", "error",
}

func (s SessionState) String() string {
	if int(s) < len(sessionStateNames) {
		return sessionStateNames[s]
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// resumeMinSeconds is the stored position below which resuming is pointless
// and playback restarts from the beginning.
const resumeMinSeconds = 10

// SessionParams describes one playback attempt.
type SessionParams struct {
	EpisodeID     domain.EpisodeID
	Source        string
	ViewportWidth int
	Autoplay      bool
}

// Session drives one episode's playback through its lifecycle: probe the
// source, pick a backend, construct the player, resume saved position, relay
// media events into progress writes, and tear everything down exactly once.
type Session struct {
	mu    sync.Mutex
	state SessionState
	err   *domain.PlaybackError

	ctx    context.Context
	cancel context.CancelFunc

	params SessionParams
	media  *Media

	backends *BackendFactory
	players  PlayerFactory
	store    *progress.Store
	logger   *slog.Logger
	narrowPx int

	backend Backend
	player  Player

	// saveLimiter coalesces timeupdate bursts into at most one progress
	// write per second.
	saveLimiter *rate.Limiter

	playerReady chan struct{}
	readyOnce   sync.Once
	notify      chan struct{} // pending fatal error or playback end
	fatal       *domain.PlaybackError
	ended       bool

	unsubscribe []func()
	started     bool
	teardown    sync.Once
	done        chan struct{}
}

func newSession(params SessionParams, media *Media, backends *BackendFactory, players PlayerFactory, store *progress.Store, narrowPx int, logger *slog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		state:       SessionIdle,
		ctx:         ctx,
		cancel:      cancel,
		params:      params,
		media:       media,
		backends:    backends,
		players:     players,
		store:       store,
		narrowPx:    narrowPx,
		logger:      logger.With(slog.String("episodeId", string(params.EpisodeID))),
		saveLimiter: rate.NewLimiter(rate.Limit(1), 1),
		playerReady: make(chan struct{}),
		notify:      make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

// Start begins the lifecycle. A missing source is rejected before any
// asynchronous work starts.
func (s *Session) Start() {
	s.mu.Lock()
	if s.state != SessionIdle {
		s.mu.Unlock()
		return
	}
	if s.params.Source == "" {
		s.mu.Unlock()
		s.setError(&domain.PlaybackError{
			Kind:   domain.PlaybackNoSource,
			Detail: "episode has no video source",
		})
		close(s.done)
		return
	}
	s.state = SessionProbing
	s.started = true
	s.mu.Unlock()

	metrics.PlaybackSessionsActive.Inc()
	go s.run()
}

// Seek forwards a position change to the player. Before the player exists it
// is a no-op.
func (s *Session) Seek(seconds float64) {
	s.mu.Lock()
	player := s.player
	s.mu.Unlock()
	if player != nil {
		player.Seek(seconds)
	}
}

// Close tears the session down. It is idempotent, never fails, and is safe
// to call at any lifecycle point, including mid-probe.
func (s *Session) Close() {
	s.cancel()
	s.cleanup()
}

// Done is closed when the lifecycle loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Err() *domain.PlaybackError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SessionSnapshot is the UI-facing view of a session.
type SessionSnapshot struct {
	EpisodeID   domain.EpisodeID      `json:"episode_id"`
	State       string                `json:"state"`
	Backend     BackendKind           `json:"backend,omitempty"`
	Source      string                `json:"source"`
	Controls    []string              `json:"controls"`
	CurrentTime float64               `json:"current_time"`
	Duration    float64               `json:"duration"`
	Error       *domain.PlaybackError `json:"error,omitempty"`
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := SessionSnapshot{
		EpisodeID:   s.params.EpisodeID,
		State:       s.state.String(),
		Source:      s.media.Source(),
		Controls:    ControlsFor(s.params.ViewportWidth, s.narrowPx),
		CurrentTime: s.media.CurrentTime(),
		Duration:    s.media.Duration(),
		Error:       s.err,
	}
	if s.backend != nil {
		snap.Backend = s.backend.Kind()
	}
	return snap
}

func (s *Session) currentState() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) transitionTo(next SessionState) {
	s.mu.Lock()
	from := s.state
	s.state = next
	s.mu.Unlock()
	metrics.PlaybackStateTransitionsTotal.WithLabelValues(from.String(), next.String()).Inc()
	s.logger.Info("playback state transition",
		slog.String("from", from.String()),
		slog.String("to", next.String()),
	)
}

func (s *Session) setError(perr *domain.PlaybackError) {
	if perr.Source == "" {
		perr.Source = s.params.Source
	}
	s.mu.Lock()
	from := s.state
	s.state = SessionError
	s.err = perr
	s.mu.Unlock()
	metrics.PlaybackStateTransitionsTotal.WithLabelValues(from.String(), SessionError.String()).Inc()
	metrics.PlaybackErrorsTotal.WithLabelValues(string(perr.Kind)).Inc()
	s.logger.Error("playback failed",
		slog.String("state", from.String()),
		slog.String("kind", string(perr.Kind)),
		slog.String("detail", perr.Detail),
		slog.String("source", perr.Source),
	)
}

// fail records a fatal error raised by an event handler and wakes the loop.
func (s *Session) fail(perr *domain.PlaybackError) {
	s.mu.Lock()
	if s.fatal == nil {
		s.fatal = perr
	}
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Session) finish() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// ---- lifecycle loop ----

func (s *Session) run() {
	defer close(s.done)
	defer s.cleanup()

	for {
		if s.ctx.Err() != nil {
			return
		}

		switch s.currentState() {
		case SessionProbing:
			if err := s.doProbing(); err != nil {
				if s.ctx.Err() == nil {
					s.setError(asPlaybackError(err, s.params.Source))
				}
				return
			}
		case SessionTranscoding:
			if err := s.doTranscoding(); err != nil {
				if s.ctx.Err() == nil {
					s.setError(asPlaybackError(err, s.params.Source))
				}
				return
			}
		case SessionBackendSelected:
			if err := s.doAttach(); err != nil {
				return
			}
		case SessionPlayerReady:
			if err := s.doReady(); err != nil {
				if s.ctx.Err() == nil {
					s.setError(asPlaybackError(err, s.params.Source))
				}
				return
			}
		case SessionPlaying:
			s.doPlaying()
			return
		case SessionIdle, SessionEnded, SessionError:
			return
		}
	}
}

// doProbing selects the backend for the source. The transcode path gets its
// own state because conversion can take minutes; every other backend loads
// inline.
func (s *Session) doProbing() error {
	backend := s.backends.Select(s.params.Source)
	s.mu.Lock()
	s.backend = backend
	s.mu.Unlock()

	metrics.PlaybackSessionStartsTotal.WithLabelValues(string(backend.Kind())).Inc()
	s.logger.Info("backend selected",
		slog.String("backend", string(backend.Kind())),
		slog.String("src", s.params.Source),
	)

	if backend.Kind() == BackendTranscode {
		s.transitionTo(SessionTranscoding)
		return nil
	}
	if err := backend.Load(s.ctx, s.params.Source); err != nil {
		return err
	}
	s.transitionTo(SessionBackendSelected)
	return nil
}

func (s *Session) doTranscoding() error {
	if err := s.backend.Load(s.ctx, s.params.Source); err != nil {
		return err
	}
	s.transitionTo(SessionBackendSelected)
	return nil
}

// doAttach binds the backend to the media element and constructs the player.
// A player construction failure falls back to the element's native controls
// over the already attached source, then surfaces the error.
func (s *Session) doAttach() error {
	if err := s.backend.Attach(s.media); err != nil {
		s.setError(asPlaybackError(err, s.params.Source))
		return err
	}

	if reporter, ok := s.backend.(FaultReporter); ok {
		reporter.OnFatalFault(func(fault StreamFault) {
			s.fail(&domain.PlaybackError{
				Kind:   domain.PlaybackStreamingFault,
				Detail: fault.Detail,
			})
		})
	}

	player, err := s.players.New(s.media, PlayerConfig{
		Controls: ControlsFor(s.params.ViewportWidth, s.narrowPx),
		Autoplay: s.params.Autoplay,
		SeekStep: 10,
	})
	if err != nil {
		s.logger.Warn("player construction failed, enabling native controls", slog.Any("error", err))
		s.media.SetControls(true)
		s.setError(&domain.PlaybackError{
			Kind:   domain.PlaybackPlayerInitFailed,
			Detail: "player failed to initialize, using native playback",
			Err:    err,
		})
		return err
	}

	s.mu.Lock()
	s.player = player
	s.mu.Unlock()
	player.OnReady(func() {
		s.readyOnce.Do(func() { close(s.playerReady) })
	})

	s.transitionTo(SessionPlayerReady)
	return nil
}

// doReady waits for the player, restores the saved position, and wires media
// events into the progress store.
func (s *Session) doReady() error {
	select {
	case <-s.playerReady:
	case <-s.ctx.Done():
		return s.ctx.Err()
	}

	if rec, err := s.store.Get(s.params.EpisodeID); err == nil && rec.CurrentTime > resumeMinSeconds {
		s.logger.Info("resuming playback", slog.Float64("position", rec.CurrentTime))
		s.player.Seek(rec.CurrentTime)
	}

	s.subscribe(EventTimeUpdate, func(u MediaUpdate) {
		if s.ctx.Err() != nil {
			return
		}
		if !s.saveLimiter.Allow() {
			return
		}
		s.store.Save(s.params.EpisodeID, u.CurrentTime, u.Duration)
	})
	s.subscribe(EventEnded, func(u MediaUpdate) {
		if s.ctx.Err() != nil {
			return
		}
		dur := u.Duration
		if dur <= 0 {
			dur = s.media.Duration()
		}
		// Mark fully watched regardless of the coalescing window.
		s.store.Save(s.params.EpisodeID, dur, dur)
		s.finish()
	})
	s.subscribe(EventError, func(u MediaUpdate) {
		if s.ctx.Err() != nil {
			return
		}
		s.fail(&domain.PlaybackError{
			Kind:   domain.PlaybackNativeMediaFault,
			Detail: u.ErrorCode.Detail(),
		})
	})

	s.transitionTo(SessionPlaying)
	return nil
}

// doPlaying blocks until the episode ends, a handler reports a fatal error,
// or the session is closed.
func (s *Session) doPlaying() {
	for {
		select {
		case <-s.notify:
			s.mu.Lock()
			fatal := s.fatal
			ended := s.ended
			s.mu.Unlock()
			if fatal != nil {
				s.setError(fatal)
				return
			}
			if ended {
				s.transitionTo(SessionEnded)
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) subscribe(event MediaEvent, fn func(MediaUpdate)) {
	cancel := s.media.On(event, fn)
	s.mu.Lock()
	s.unsubscribe = append(s.unsubscribe, cancel)
	s.mu.Unlock()
}

// cleanup releases everything the session holds. Failures are logged and
// swallowed so teardown never cascades.
func (s *Session) cleanup() {
	s.teardown.Do(func() {
		s.cancel()

		s.mu.Lock()
		unsubs := s.unsubscribe
		s.unsubscribe = nil
		player := s.player
		backend := s.backend
		started := s.started
		s.mu.Unlock()

		for _, unsub := range unsubs {
			unsub()
		}
		if player != nil {
			if err := player.Destroy(); err != nil {
				s.logger.Warn("player teardown failed", slog.Any("error", err))
			}
		}
		if backend != nil {
			if err := backend.Destroy(); err != nil {
				s.logger.Warn("backend teardown failed", slog.Any("error", err))
			}
		}
		if started {
			metrics.PlaybackSessionsActive.Dec()
		}
	})
}

func asPlaybackError(err error, src string) *domain.PlaybackError {
	if perr, ok := err.(*domain.PlaybackError); ok {
		return perr
	}
	return &domain.PlaybackError{
		Kind:   domain.PlaybackNativeMediaFault,
		Detail: "failed to prepare media source",
		Source: src,
		Err:    err,
	}
}

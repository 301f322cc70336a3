package playback

import (
	"sync"

	"selfcinema/internal/domain"
)

// MediaEvent is a native media element event relayed into the session.
type MediaEvent string

const (
	EventTimeUpdate MediaEvent = "timeupdate"
	EventEnded      MediaEvent = "ended"
	EventError      MediaEvent = "error"
)

// MediaUpdate carries the payload of a media event.
type MediaUpdate struct {
	CurrentTime float64
	Duration    float64
	ErrorCode   domain.NativeMediaErrorCode
}

// Media is the typed stand-in for the page's video element. Backends assign
// a source to it, the player adapter configures its controls, and the UI
// layer injects native events through Dispatch.
type Media struct {
	mu          sync.Mutex
	src         string
	controls    bool
	currentTime float64
	duration    float64
	nextID      int
	handlers    map[MediaEvent]map[int]func(MediaUpdate)
}

func NewMedia() *Media {
	return &Media{handlers: make(map[MediaEvent]map[int]func(MediaUpdate))}
}

func (m *Media) SetSource(src string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.src = src
	m.currentTime = 0
}

func (m *Media) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src
}

// SetControls toggles the element's default control chrome. It is switched
// on when the session falls back to native playback.
func (m *Media) SetControls(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.controls = on
}

func (m *Media) Controls() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.controls
}

func (m *Media) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

func (m *Media) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

// Seek moves the playback position.
func (m *Media) Seek(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	m.currentTime = seconds
}

// On registers an event handler and returns its unsubscribe func. Sessions
// must unsubscribe on teardown so a superseded session never observes
// events meant for its successor.
func (m *Media) On(event MediaEvent, fn func(MediaUpdate)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	if m.handlers[event] == nil {
		m.handlers[event] = make(map[int]func(MediaUpdate))
	}
	m.handlers[event][id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers[event], id)
	}
}

// Dispatch delivers a native event to all subscribers. Position and
// duration are recorded before handlers run.
func (m *Media) Dispatch(event MediaEvent, update MediaUpdate) {
	m.mu.Lock()
	if event == EventTimeUpdate || event == EventEnded {
		m.currentTime = update.CurrentTime
		if update.Duration > 0 {
			m.duration = update.Duration
		}
	}
	fns := make([]func(MediaUpdate), 0, len(m.handlers[event]))
	for _, fn := range m.handlers[event] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(update)
	}
}

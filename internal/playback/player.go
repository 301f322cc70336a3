package playback

import (
	"errors"
	"sync"
)

// PlayerConfig selects the control surface for one playback attempt.
type PlayerConfig struct {
	Controls []string
	Autoplay bool
	SeekStep int // seconds skipped by rewind/fast-forward
}

// fullControls is the complete control set used on regular viewports.
var fullControls = []string{
	"play-large", "rewind", "play", "fast-forward", "progress",
	"current-time", "duration", "mute", "volume", "settings",
	"pip", "fullscreen",
}

// narrowControls is the reduced set for narrow viewports.
var narrowControls = []string{
	"play-large", "play", "progress", "current-time", "mute", "fullscreen",
}

// ControlsFor picks the control set by viewport width. Width 0 (unknown)
// gets the full set.
func ControlsFor(viewportWidth, narrowPx int) []string {
	if viewportWidth > 0 && narrowPx > 0 && viewportWidth < narrowPx {
		return narrowControls
	}
	return fullControls
}

// Player is the adapter over the opaque player library. Construction may
// fail; Destroy must be safe to call repeatedly and on an already disposed
// instance.
type Player interface {
	OnReady(fn func())
	Seek(seconds float64)
	CurrentTime() float64
	Duration() float64
	Destroy() error
}

// PlayerFactory builds a player against a media element.
type PlayerFactory interface {
	New(m *Media, cfg PlayerConfig) (Player, error)
}

// DefaultPlayerFactory wires the built-in player, which drives the media
// element directly and reports ready as soon as it is constructed.
type DefaultPlayerFactory struct{}

func (DefaultPlayerFactory) New(m *Media, cfg PlayerConfig) (Player, error) {
	if m == nil {
		return nil, errors.New("player requires a media element")
	}
	return &embeddedPlayer{media: m}, nil
}

type embeddedPlayer struct {
	media *Media

	mu        sync.Mutex
	destroyed bool
}

// OnReady fires immediately: the embedded player has no asynchronous asset
// loading of its own.
func (p *embeddedPlayer) OnReady(fn func()) {
	p.mu.Lock()
	destroyed := p.destroyed
	p.mu.Unlock()
	if !destroyed && fn != nil {
		fn()
	}
}

func (p *embeddedPlayer) Seek(seconds float64) {
	p.media.Seek(seconds)
}

func (p *embeddedPlayer) CurrentTime() float64 { return p.media.CurrentTime() }
func (p *embeddedPlayer) Duration() float64    { return p.media.Duration() }

func (p *embeddedPlayer) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = true
	return nil
}

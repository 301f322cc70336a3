package domain

import "fmt"

// PlaybackErrorKind is the error taxonomy surfaced to the UI when a playback
// session fails.
type PlaybackErrorKind string

const (
	PlaybackNoSource         PlaybackErrorKind = "no_source"
	PlaybackStreamingFault   PlaybackErrorKind = "streaming_fault"
	PlaybackPlayerInitFailed PlaybackErrorKind = "player_init_failed"
	PlaybackNativeMediaFault PlaybackErrorKind = "native_media_fault"
	PlaybackTranscodeFailed  PlaybackErrorKind = "transcode_failed"
)

// NativeMediaErrorCode matches the media element's numeric error codes.
type NativeMediaErrorCode int

const (
	MediaErrAborted     NativeMediaErrorCode = 1
	MediaErrNetwork     NativeMediaErrorCode = 2
	MediaErrDecode      NativeMediaErrorCode = 3
	MediaErrUnsupported NativeMediaErrorCode = 4
)

// Detail returns the human-readable category for a native media error code.
func (c NativeMediaErrorCode) Detail() string {
	switch c {
	case MediaErrAborted:
		return "playback aborted"
	case MediaErrNetwork:
		return "network error while fetching media"
	case MediaErrDecode:
		return "media decode error"
	case MediaErrUnsupported:
		return "unsupported media format"
	default:
		return fmt.Sprintf("unknown media error (%d)", int(c))
	}
}

// PlaybackError carries the error kind, a human-readable detail and the
// offending source URL so the UI can render the inline error panel.
type PlaybackError struct {
	Kind   PlaybackErrorKind `json:"kind"`
	Detail string            `json:"detail"`
	Source string            `json:"source"`
	Err    error             `json:"-"`
}

func (e *PlaybackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (source %s): %v", e.Kind, e.Detail, e.Source, e.Err)
	}
	return fmt.Sprintf("%s: %s (source %s)", e.Kind, e.Detail, e.Source)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

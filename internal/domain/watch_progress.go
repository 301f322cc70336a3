package domain

import "time"

// WatchProgress is the per-episode resume state kept in the local progress
// store. Progress is a 0-100 percentage; Completed flips once playback has
// passed 90%.
type WatchProgress struct {
	EpisodeID   EpisodeID `json:"episodeId"`
	CurrentTime float64   `json:"currentTime"`
	Duration    float64   `json:"duration"`
	Progress    float64   `json:"progress"`
	LastWatched time.Time `json:"lastWatched"`
	Completed   bool      `json:"completed"`
}

// WatchStatus classifies an episode for list views.
type WatchStatus string

const (
	WatchUnwatched WatchStatus = "unwatched"
	WatchWatching  WatchStatus = "watching"
	WatchCompleted WatchStatus = "completed"
)

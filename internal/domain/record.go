package domain

import "time"

type SeriesID string
type EpisodeID string

// SeriesStatus mirrors the backend's airing-status vocabulary.
type SeriesStatus string

const (
	SeriesUpcoming SeriesStatus = "待播出"
	SeriesAiring   SeriesStatus = "更新中"
	SeriesFinished SeriesStatus = "已完结"
)

// Series is the show record owned by the backend. The gateway only holds a
// cached copy per fetch and never mutates it locally.
type Series struct {
	ID            SeriesID     `json:"id"`
	Title         string       `json:"title"`
	EnglishTitle  string       `json:"english_title,omitempty"`
	Description   string       `json:"description"`
	CoverImage    string       `json:"cover_image,omitempty"`
	BackdropImage string       `json:"backdrop_image,omitempty"`
	TotalEpisodes int          `json:"total_episodes"`
	ReleaseYear   int          `json:"release_year"`
	Genre         []string     `json:"genre"`
	Rating        float64      `json:"rating"`
	Views         string       `json:"views"`
	Status        SeriesStatus `json:"status"`
	Director      string       `json:"director,omitempty"`
	Actors        []string     `json:"actors"`
	Region        string       `json:"region"`
	Language      string       `json:"language"`
	UpdateTime    string       `json:"update_time"`
	Tags          []string     `json:"tags"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Episode is a single playable unit belonging to a Series. The ordinal is
// unique within its series; the backend enforces the foreign key and cascades
// deletion when the series goes away.
type Episode struct {
	ID          EpisodeID `json:"id"`
	SeriesID    SeriesID  `json:"series_id"`
	Episode     int       `json:"episode"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	VideoURL    string    `json:"video_url"`
	Duration    string    `json:"duration,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	IsVIP       bool      `json:"is_vip"`
	CreatedAt   time.Time `json:"created_at"`
}

// ShareLink is a public watch URL minted by the backend for one series.
type ShareLink struct {
	ShareURL string `json:"share_url"`
}

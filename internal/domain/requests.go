package domain

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer credential issued by the backend.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreateSeriesRequest is the mutable subset of Series accepted by the
// backend on create. Update requests send the same shape with only the
// changed fields populated.
type CreateSeriesRequest struct {
	Title         string       `json:"title,omitempty"`
	EnglishTitle  string       `json:"english_title,omitempty"`
	Description   string       `json:"description,omitempty"`
	CoverImage    string       `json:"cover_image,omitempty"`
	BackdropImage string       `json:"backdrop_image,omitempty"`
	TotalEpisodes int          `json:"total_episodes,omitempty"`
	ReleaseYear   int          `json:"release_year,omitempty"`
	Genre         []string     `json:"genre,omitempty"`
	Rating        float64      `json:"rating,omitempty"`
	Status        SeriesStatus `json:"status,omitempty"`
	Director      string       `json:"director,omitempty"`
	Actors        []string     `json:"actors,omitempty"`
	Region        string       `json:"region,omitempty"`
	Language      string       `json:"language,omitempty"`
	UpdateTime    string       `json:"update_time,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
}

// CreateEpisodeRequest is the mutable subset of Episode accepted on create.
type CreateEpisodeRequest struct {
	SeriesID    SeriesID `json:"series_id,omitempty"`
	Episode     int      `json:"episode,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	VideoURL    string   `json:"video_url,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	CoverImage  string   `json:"cover_image,omitempty"`
	IsVIP       bool     `json:"is_vip,omitempty"`
}

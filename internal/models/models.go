package models

import "time"

// Rating is the listener's thumb state for a track.
type Rating int

const (
	RatingNone Rating = iota
	RatingThumbsUp
	RatingThumbsDown
)

func (r Rating) String() string {
	switch r {
	case RatingThumbsUp:
		return "thumbs_up"
	case RatingThumbsDown:
		return "thumbs_down"
	default:
		return "unrated"
	}
}

// Credentials is a saved listener login.
type Credentials struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Empty reports whether either field is missing.
func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// Session is an authenticated handle permitting calls to the remote service.
// It is owned exclusively by the session manager; other components hold it
// for at most one call and re-request it afterwards.
type Session struct {
	AuthToken string
	UserID    string
	PartnerID string
	CreatedAt time.Time
}

// Station is a named playlist source. Immutable once fetched.
type Station struct {
	ID         string
	Name       string
	IsQuickMix bool
}

// Track is a single playable audio item with metadata and listener feedback
// state. Rating and TiredUntil are mutated locally in response to feedback
// commands and mirrored to the service best-effort.
type Track struct {
	Token      string // unique playback token, also the cache key
	MusicID    string
	StationID  string
	Title      string
	Artist     string
	Album      string
	AudioURL   string
	Format     string // audio container tag, e.g. "mp3"
	Duration   time.Duration
	Rating     Rating
	TiredUntil time.Time
}

// TiredAt reports whether the track is suppressed at the given instant.
// A locally tired track must not re-enter the queue even if the service
// still returns it, to tolerate lag in server-side propagation.
func (t Track) TiredAt(now time.Time) bool {
	return !t.TiredUntil.IsZero() && now.Before(t.TiredUntil)
}

// CacheKey returns the identifier cached audio is stored under.
func (t Track) CacheKey() string {
	return t.Token
}

package services

import (
	"context"

	"github.com/desertthunder/aria/internal/models"
)

// RadioService defines the operations the playback core needs from the
// remote streaming radio service.
type RadioService interface {
	// Authenticate exchanges stored credentials for a session.
	// Fails with [shared.ErrInvalidCredentials] when the login is rejected
	// and [shared.ErrConnectionFailed] on transport failures.
	Authenticate(ctx context.Context, creds models.Credentials) (*models.Session, error)

	// ListStations retrieves the listener's station catalog.
	ListStations(ctx context.Context, session *models.Session) ([]models.Station, error)

	// GetPlaylist retrieves the next page of tracks for a station.
	GetPlaylist(ctx context.Context, session *models.Session, stationID string) ([]models.Track, error)

	// RateTrack submits a thumb rating. RatingNone clears an existing rating.
	RateTrack(ctx context.Context, session *models.Session, track models.Track, rating models.Rating) error

	// MarkTired asks the service to shelve the track for a month.
	MarkTired(ctx context.Context, session *models.Session, track models.Track) error

	// DownloadTrack fetches the audio blob behind a track's audio URL.
	// 4xx responses fail with [shared.ErrUnretryable]; transport failures
	// with [shared.ErrConnectionFailed].
	DownloadTrack(ctx context.Context, audioURL string) ([]byte, error)

	// Name returns the name of the service.
	Name() string
}

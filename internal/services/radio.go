// HTTP implementation of [RadioService].
//
// Endpoint shapes follow the service's JSON-RPC-over-REST gateway; errors come
// back as an {code, message} envelope on non-2xx statuses.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/aria/internal/models"
	"github.com/desertthunder/aria/internal/shared"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://radio.example.com/api/v1"

// Service error codes carried in the error envelope.
const (
	codeInvalidLogin   = "INVALID_LOGIN"
	codeSessionExpired = "SESSION_EXPIRED"
	codeRateLimited    = "RATE_LIMITED"
)

// HTTPRadioService implements [RadioService] against the JSON gateway.
// All metadata calls share one client-side [rate.Limiter]; audio downloads
// bypass it because blob fetches are served from the CDN, not the API.
type HTTPRadioService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTPRadioService creates a service client. A zero requestsPerSecond
// disables throttling.
func NewHTTPRadioService(baseURL string, client *http.Client, requestsPerSecond float64) *HTTPRadioService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &HTTPRadioService{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Name returns the name of the service.
func (s *HTTPRadioService) Name() string { return "radio" }

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AuthToken string `json:"auth_token"`
	UserID    string `json:"user_id"`
	PartnerID string `json:"partner_id"`
}

type stationResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsQuickMix bool   `json:"is_quickmix"`
}

type stationListResponse struct {
	Stations []stationResponse `json:"stations"`
}

type trackResponse struct {
	Token        string `json:"token"`
	MusicID      string `json:"music_id"`
	StationID    string `json:"station_id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Album        string `json:"album"`
	AudioURL     string `json:"audio_url"`
	Format       string `json:"format"`
	DurationSecs int    `json:"duration_secs"`
	Rating       string `json:"rating"`
}

type playlistResponse struct {
	Tracks []trackResponse `json:"tracks"`
}

type ratingRequest struct {
	Rating string `json:"rating"`
}

// Authenticate exchanges credentials for a session token.
func (s *HTTPRadioService) Authenticate(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if creds.Empty() {
		return nil, shared.ErrMissingCredentials
	}

	var resp loginResponse
	if err := s.call(ctx, http.MethodPost, "/auth/login", "", loginRequest{
		Username: creds.Username,
		Password: creds.Password,
	}, &resp); err != nil {
		return nil, err
	}

	if resp.AuthToken == "" {
		return nil, fmt.Errorf("%w: login response missing auth token", shared.ErrMalformedResponse)
	}

	return &models.Session{
		AuthToken: resp.AuthToken,
		UserID:    resp.UserID,
		PartnerID: resp.PartnerID,
		CreatedAt: time.Now(),
	}, nil
}

// ListStations retrieves the listener's station catalog.
func (s *HTTPRadioService) ListStations(ctx context.Context, session *models.Session) ([]models.Station, error) {
	if session == nil {
		return nil, shared.ErrNotAuthenticated
	}

	var resp stationListResponse
	if err := s.call(ctx, http.MethodGet, "/stations", session.AuthToken, nil, &resp); err != nil {
		return nil, err
	}

	stations := make([]models.Station, 0, len(resp.Stations))
	for _, st := range resp.Stations {
		stations = append(stations, models.Station{
			ID:         st.ID,
			Name:       st.Name,
			IsQuickMix: st.IsQuickMix,
		})
	}
	return stations, nil
}

// GetPlaylist retrieves the next page of playable tracks for a station.
func (s *HTTPRadioService) GetPlaylist(ctx context.Context, session *models.Session, stationID string) ([]models.Track, error) {
	if session == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if stationID == "" {
		return nil, fmt.Errorf("%w: station id", shared.ErrMissingArgument)
	}

	var resp playlistResponse
	path := fmt.Sprintf("/stations/%s/playlist", stationID)
	if err := s.call(ctx, http.MethodGet, path, session.AuthToken, nil, &resp); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(resp.Tracks))
	for _, tr := range resp.Tracks {
		if tr.Token == "" || tr.AudioURL == "" {
			return nil, fmt.Errorf("%w: playlist entry missing token or audio url", shared.ErrMalformedResponse)
		}
		tracks = append(tracks, models.Track{
			Token:     tr.Token,
			MusicID:   tr.MusicID,
			StationID: tr.StationID,
			Title:     tr.Title,
			Artist:    tr.Artist,
			Album:     tr.Album,
			AudioURL:  tr.AudioURL,
			Format:    tr.Format,
			Duration:  time.Duration(tr.DurationSecs) * time.Second,
			Rating:    parseRating(tr.Rating),
		})
	}
	return tracks, nil
}

// RateTrack submits a thumb rating for a track. RatingNone clears the rating.
func (s *HTTPRadioService) RateTrack(ctx context.Context, session *models.Session, track models.Track, rating models.Rating) error {
	if session == nil {
		return shared.ErrNotAuthenticated
	}

	path := fmt.Sprintf("/tracks/%s/rating", track.Token)
	return s.call(ctx, http.MethodPost, path, session.AuthToken, ratingRequest{Rating: rating.String()}, nil)
}

// MarkTired shelves a track service-side for the tired cooldown period.
func (s *HTTPRadioService) MarkTired(ctx context.Context, session *models.Session, track models.Track) error {
	if session == nil {
		return shared.ErrNotAuthenticated
	}

	path := fmt.Sprintf("/tracks/%s/sleep", track.Token)
	return s.call(ctx, http.MethodPost, path, session.AuthToken, nil, nil)
}

// DownloadTrack fetches a track's audio bytes from its CDN URL.
func (s *HTTPRadioService) DownloadTrack(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: audio fetch returned status %d", shared.ErrUnretryable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: audio fetch returned status %d", shared.ErrConnectionFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrConnectionFailed, err)
	}
	return data, nil
}

// call performs one throttled JSON round trip and decodes into out when
// out is non-nil.
func (s *HTTPRadioService) call(ctx context.Context, method, path, authToken string, in, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authToken != "" {
		req.Header.Set("X-Auth-Token", authToken)
	}
	// Correlates client calls with gateway logs.
	req.Header.Set("X-Request-ID", shared.GenerateID())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrConnectionFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
	}
	return nil
}

// classifyError maps an error envelope (or bare status) onto the shared
// sentinel taxonomy so callers can branch with errors.Is.
func classifyError(status int, raw []byte) error {
	var env errorEnvelope
	_ = json.Unmarshal(raw, &env)

	switch env.Code {
	case codeInvalidLogin:
		return fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, env.Message)
	case codeSessionExpired:
		return fmt.Errorf("%w: %s", shared.ErrSessionExpired, env.Message)
	case codeRateLimited:
		return fmt.Errorf("%w: %s", shared.ErrRateLimited, env.Message)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d", shared.ErrSessionExpired, status)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", shared.ErrRateLimited, status)
	case http.StatusNotFound:
		return fmt.Errorf("%w: status %d", shared.ErrStationNotFound, status)
	}

	if status >= 500 {
		return fmt.Errorf("%w: status %d", shared.ErrConnectionFailed, status)
	}
	return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, status)
}

func parseRating(s string) models.Rating {
	switch s {
	case "thumbs_up":
		return models.RatingThumbsUp
	case "thumbs_down":
		return models.RatingThumbsDown
	default:
		return models.RatingNone
	}
}

// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/aria/internal/models"
)

// MockRadioService is a scriptable test double for [services.RadioService].
// Zero-value hooks yield benign defaults; set a func field to script behavior.
type MockRadioService struct {
	mu sync.Mutex

	AuthenticateFunc func(ctx context.Context, creds models.Credentials) (*models.Session, error)
	ListStationsFunc func(ctx context.Context, session *models.Session) ([]models.Station, error)
	GetPlaylistFunc  func(ctx context.Context, session *models.Session, stationID string) ([]models.Track, error)
	RateTrackFunc    func(ctx context.Context, session *models.Session, track models.Track, rating models.Rating) error
	MarkTiredFunc    func(ctx context.Context, session *models.Session, track models.Track) error
	DownloadFunc     func(ctx context.Context, audioURL string) ([]byte, error)

	// Calls records every method invocation in order, for asserting on
	// sequencing and counts.
	Calls []string
}

func (m *MockRadioService) record(name string) {
	m.mu.Lock()
	m.Calls = append(m.Calls, name)
	m.mu.Unlock()
}

// CallCount returns how many recorded calls match name.
func (m *MockRadioService) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *MockRadioService) Authenticate(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	m.record("Authenticate")
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, creds)
	}
	return &models.Session{AuthToken: "token", UserID: "user", CreatedAt: time.Now()}, nil
}

func (m *MockRadioService) ListStations(ctx context.Context, session *models.Session) ([]models.Station, error) {
	m.record("ListStations")
	if m.ListStationsFunc != nil {
		return m.ListStationsFunc(ctx, session)
	}
	return []models.Station{}, nil
}

func (m *MockRadioService) GetPlaylist(ctx context.Context, session *models.Session, stationID string) ([]models.Track, error) {
	m.record("GetPlaylist")
	if m.GetPlaylistFunc != nil {
		return m.GetPlaylistFunc(ctx, session, stationID)
	}
	return []models.Track{}, nil
}

func (m *MockRadioService) RateTrack(ctx context.Context, session *models.Session, track models.Track, rating models.Rating) error {
	m.record("RateTrack")
	if m.RateTrackFunc != nil {
		return m.RateTrackFunc(ctx, session, track, rating)
	}
	return nil
}

func (m *MockRadioService) MarkTired(ctx context.Context, session *models.Session, track models.Track) error {
	m.record("MarkTired")
	if m.MarkTiredFunc != nil {
		return m.MarkTiredFunc(ctx, session, track)
	}
	return nil
}

func (m *MockRadioService) DownloadTrack(ctx context.Context, audioURL string) ([]byte, error) {
	m.record("DownloadTrack")
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, audioURL)
	}
	return ValidMP3Body(), nil
}

func (m *MockRadioService) Name() string { return "mock" }

// MemoryStore is an in-memory [session.CredentialStore].
type MemoryStore struct {
	mu    sync.Mutex
	Creds *models.Credentials
	// SaveErr, when set, is returned from Save.
	SaveErr error
}

func (s *MemoryStore) Load() (*models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Creds == nil {
		return nil, nil
	}
	c := *s.Creds
	return &c, nil
}

func (s *MemoryStore) Save(creds models.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Creds = &creds
	return nil
}

// FakeSink is an in-memory [player.Sink] that records commands and lets a
// test signal track completion.
type FakeSink struct {
	mu       sync.Mutex
	loaded   []string
	playing  bool
	volume   float64
	position time.Duration
	// LoadErr, when set, fails every Load.
	LoadErr  error
	finished chan struct{}
}

func NewFakeSink() *FakeSink {
	return &FakeSink{finished: make(chan struct{}, 1)}
}

func (s *FakeSink) Load(data []byte, format string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return s.LoadErr
	}
	s.loaded = append(s.loaded, format)
	s.playing = false
	s.position = 0
	return nil
}

func (s *FakeSink) Play() {
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
}

func (s *FakeSink) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

func (s *FakeSink) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
}

func (s *FakeSink) Stop() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

func (s *FakeSink) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *FakeSink) Finished() <-chan struct{} { return s.finished }

// FinishTrack simulates the loaded track playing to completion.
func (s *FakeSink) FinishTrack() {
	s.finished <- struct{}{}
}

// Playing reports whether the sink is currently producing output.
func (s *FakeSink) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Volume returns the last applied volume level.
func (s *FakeSink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// LoadCount returns how many tracks have been loaded.
func (s *FakeSink) LoadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loaded)
}

// ValidMP3Body returns a payload that passes audio validation: an ID3 header
// padded past the minimum size check.
func ValidMP3Body() []byte {
	body := make([]byte, 2048)
	copy(body, "ID3")
	return body
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/aria/internal/models"
	"github.com/desertthunder/aria/internal/shared"
)

func newTestService(handler http.Handler) (*HTTPRadioService, *httptest.Server) {
	server := httptest.NewServer(handler)
	svc := NewHTTPRadioService(server.URL, server.Client(), 0)
	return svc, server
}

func TestAuthenticate(t *testing.T) {
	creds := models.Credentials{Username: "listener@example.com", Password: "hunter2"}

	t.Run("Success", func(t *testing.T) {
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}

			var req loginRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode login body: %v", err)
			}
			if req.Username != creds.Username || req.Password != creds.Password {
				t.Errorf("credentials not forwarded: %+v", req)
			}

			json.NewEncoder(w).Encode(loginResponse{
				AuthToken: "tok-1",
				UserID:    "user-1",
				PartnerID: "partner-1",
			})
		}))
		defer server.Close()

		session, err := svc.Authenticate(context.Background(), creds)
		if err != nil {
			t.Fatalf("authenticate failed: %v", err)
		}
		if session.AuthToken != "tok-1" || session.UserID != "user-1" {
			t.Errorf("unexpected session: %+v", session)
		}
		if session.CreatedAt.IsZero() {
			t.Error("session creation time should be set")
		}
	})

	t.Run("InvalidLogin", func(t *testing.T) {
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(errorEnvelope{Code: "INVALID_LOGIN", Message: "bad password"})
		}))
		defer server.Close()

		_, err := svc.Authenticate(context.Background(), creds)
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("EmptyCredentials", func(t *testing.T) {
		svc := NewHTTPRadioService("http://unused", nil, 0)
		_, err := svc.Authenticate(context.Background(), models.Credentials{})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("MissingToken", func(t *testing.T) {
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(loginResponse{UserID: "user-1"})
		}))
		defer server.Close()

		_, err := svc.Authenticate(context.Background(), creds)
		if !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})
}

func TestStationsAndPlaylist(t *testing.T) {
	session := &models.Session{AuthToken: "tok-1", UserID: "user-1"}

	t.Run("ListStations", func(t *testing.T) {
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/stations" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("X-Auth-Token"); got != "tok-1" {
				t.Errorf("auth token not sent, got %q", got)
			}
			json.NewEncoder(w).Encode(stationListResponse{Stations: []stationResponse{
				{ID: "qm", Name: "QuickMix", IsQuickMix: true},
				{ID: "st-1", Name: "Jazz"},
			}})
		}))
		defer server.Close()

		stations, err := svc.ListStations(context.Background(), session)
		if err != nil {
			t.Fatalf("list stations failed: %v", err)
		}
		if len(stations) != 2 {
			t.Fatalf("expected 2 stations, got %d", len(stations))
		}
		if !stations[0].IsQuickMix || stations[1].Name != "Jazz" {
			t.Errorf("unexpected stations: %+v", stations)
		}
	})

	t.Run("ListStationsUnauthenticated", func(t *testing.T) {
		svc := NewHTTPRadioService("http://unused", nil, 0)
		if _, err := svc.ListStations(context.Background(), nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("GetPlaylist", func(t *testing.T) {
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/stations/st-1/playlist" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(playlistResponse{Tracks: []trackResponse{{
				Token:        "trk-1",
				Title:        "So What",
				Artist:       "Miles Davis",
				AudioURL:     "http://cdn/trk-1.mp3",
				Format:       "mp3",
				DurationSecs: 545,
				Rating:       "thumbs_up",
			}}})
		}))
		defer server.Close()

		tracks, err := svc.GetPlaylist(context.Background(), session, "st-1")
		if err != nil {
			t.Fatalf("get playlist failed: %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if tracks[0].Duration != 545*time.Second {
			t.Errorf("duration not converted, got %v", tracks[0].Duration)
		}
		if tracks[0].Rating != models.RatingThumbsUp {
			t.Errorf("rating not parsed, got %v", tracks[0].Rating)
		}
	})

	t.Run("GetPlaylistMalformed", func(t *testing.T) {
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(playlistResponse{Tracks: []trackResponse{{Title: "No Token"}}})
		}))
		defer server.Close()

		if _, err := svc.GetPlaylist(context.Background(), session, "st-1"); !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("StationNotFound", func(t *testing.T) {
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		if _, err := svc.GetPlaylist(context.Background(), session, "nope"); !errors.Is(err, shared.ErrStationNotFound) {
			t.Errorf("expected ErrStationNotFound, got %v", err)
		}
	})
}

func TestFeedback(t *testing.T) {
	session := &models.Session{AuthToken: "tok-1"}
	track := models.Track{Token: "trk-1"}

	t.Run("RateTrack", func(t *testing.T) {
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/tracks/trk-1/rating" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			var req ratingRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Rating != "thumbs_down" {
				t.Errorf("expected thumbs_down, got %q", req.Rating)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		if err := svc.RateTrack(context.Background(), session, track, models.RatingThumbsDown); err != nil {
			t.Fatalf("rate track failed: %v", err)
		}
	})

	t.Run("MarkTired", func(t *testing.T) {
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/tracks/trk-1/sleep" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		if err := svc.MarkTired(context.Background(), session, track); err != nil {
			t.Fatalf("mark tired failed: %v", err)
		}
	})

	t.Run("SessionExpired", func(t *testing.T) {
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(errorEnvelope{Code: "SESSION_EXPIRED", Message: "stale token"})
		}))
		defer server.Close()

		if err := svc.RateTrack(context.Background(), session, track, models.RatingThumbsUp); !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired, got %v", err)
		}
	})
}

func TestDownloadTrack(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		body := []byte("ID3 fake audio")
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(body)
		}))
		defer server.Close()

		data, err := svc.DownloadTrack(context.Background(), server.URL+"/audio/trk-1.mp3")
		if err != nil {
			t.Fatalf("download failed: %v", err)
		}
		if string(data) != string(body) {
			t.Errorf("unexpected body: %q", data)
		}
	})

	t.Run("GoneIsUnretryable", func(t *testing.T) {
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGone)
		}))
		defer server.Close()

		_, err := svc.DownloadTrack(context.Background(), server.URL+"/audio/trk-1.mp3")
		if !errors.Is(err, shared.ErrUnretryable) {
			t.Errorf("expected ErrUnretryable, got %v", err)
		}
	})

	t.Run("ServerErrorIsRetryable", func(t *testing.T) {
		svc, server := newTestService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := svc.DownloadTrack(context.Background(), server.URL+"/audio/trk-1.mp3")
		if !errors.Is(err, shared.ErrConnectionFailed) {
			t.Errorf("expected ErrConnectionFailed, got %v", err)
		}
	})
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"EnvelopeWinsOverStatus", http.StatusBadRequest, `{"code":"RATE_LIMITED"}`, shared.ErrRateLimited},
		{"Unauthorized", http.StatusUnauthorized, ``, shared.ErrSessionExpired},
		{"TooManyRequests", http.StatusTooManyRequests, ``, shared.ErrRateLimited},
		{"ServerError", http.StatusInternalServerError, ``, shared.ErrConnectionFailed},
		{"Teapot", http.StatusTeapot, ``, shared.ErrAPIRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyError(tc.status, []byte(tc.body))
			if !errors.Is(err, tc.want) {
				t.Errorf("status %d: expected %v, got %v", tc.status, tc.want, err)
			}
		})
	}
}

package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication and session errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionExpired   = fmt.Errorf("session expired")

	// API and service errors
	ErrAPIRequest        = fmt.Errorf("API request failed")
	ErrRateLimited       = fmt.Errorf("rate limited by service")
	ErrMalformedResponse = fmt.Errorf("malformed service response")
	ErrConnectionFailed  = fmt.Errorf("connection failed")
	ErrStationNotFound   = fmt.Errorf("station not found")

	// Per-track errors
	ErrUnretryable  = fmt.Errorf("unretryable download failure")
	ErrDecodeFailed = fmt.Errorf("audio decode failed")

	// Local storage errors
	ErrCacheIO        = fmt.Errorf("cache storage failure")
	ErrTrackNotCached = fmt.Errorf("track not cached")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)

// package session owns the authentication lifecycle.
//
// The manager is the single source of truth for the current session: other
// components request a handle through [Manager.Current] (or run an operation
// through [Manager.Do]) and never hold a session beyond one call. Expiry
// reported by any caller re-enters authentication without user interaction;
// only rejected credentials are terminal.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aria/internal/models"
	"github.com/desertthunder/aria/internal/services"
	"github.com/desertthunder/aria/internal/shared"
)

// State enumerates the manager's lifecycle states.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateValid
	StateExpired
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// authResult carries the outcome of one authentication attempt to every
// caller that was waiting on it.
type authResult struct {
	done    chan struct{}
	session *models.Session
	err     error
}

// Manager owns the session state machine.
type Manager struct {
	svc     services.RadioService
	store   CredentialStore
	backoff shared.Backoff
	logger  *log.Logger

	mu      sync.Mutex
	state   State
	session *models.Session
	pending *authResult
	lastErr error
}

// ManagerOpts contains dependencies for creating a Manager.
type ManagerOpts struct {
	Service services.RadioService
	Store   CredentialStore
	Logger  *log.Logger
	Backoff shared.Backoff
}

// NewManager creates a session manager in StateUnauthenticated.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Backoff.Attempts == 0 {
		opts.Backoff = shared.DefaultBackoff()
	}

	return &Manager{
		svc:     opts.Service,
		store:   opts.Store,
		backoff: opts.Backoff,
		logger:  opts.Logger,
		state:   StateUnauthenticated,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns a valid session, starting or joining an authentication
// attempt as needed. It suspends the calling goroutine while authenticating,
// returns immediately from StateValid, and fails fast from StateFailed.
func (m *Manager) Current(ctx context.Context) (*models.Session, error) {
	for {
		m.mu.Lock()
		switch m.state {
		case StateValid:
			s := m.session
			m.mu.Unlock()
			return s, nil

		case StateFailed:
			err := m.lastErr
			m.mu.Unlock()
			return nil, err

		case StateUnauthenticated, StateExpired:
			res := m.beginAuthLocked()
			m.mu.Unlock()
			if err := waitAuth(ctx, res); err != nil {
				return nil, err
			}
			return res.session, nil

		case StateAuthenticating:
			res := m.pending
			m.mu.Unlock()
			if res == nil {
				// Authentication finished between the state read and here.
				continue
			}
			if err := waitAuth(ctx, res); err != nil {
				return nil, err
			}
			return res.session, nil
		}
	}
}

// Invalidate reports that a caller received a session-expired error while
// using the session identified by authToken. Stale reports against an
// already-replaced session are ignored. Re-authentication starts immediately.
func (m *Manager) Invalidate(authToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateValid || m.session == nil || m.session.AuthToken != authToken {
		return
	}

	m.logger.Info("session expired, re-authenticating")
	m.state = StateExpired
	m.session = nil
	m.beginAuthLocked()
}

// Reset stores new credentials and clears a terminal failure so the next
// Current call retries authentication.
func (m *Manager) Reset(creds models.Credentials) error {
	if err := m.store.Save(creds); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateFailed || m.state == StateUnauthenticated {
		m.state = StateUnauthenticated
		m.lastErr = nil
	}
	return nil
}

// Do runs op with a current session. When op reports session expiry the
// manager re-authenticates and op is retried once with the fresh session.
func (m *Manager) Do(ctx context.Context, op func(ctx context.Context, session *models.Session) error) error {
	s, err := m.Current(ctx)
	if err != nil {
		return err
	}

	err = op(ctx, s)
	if !errors.Is(err, shared.ErrSessionExpired) {
		return err
	}

	m.Invalidate(s.AuthToken)
	s, err = m.Current(ctx)
	if err != nil {
		return err
	}
	return op(ctx, s)
}

// beginAuthLocked transitions to StateAuthenticating and launches the
// authentication goroutine. Callers must hold m.mu.
func (m *Manager) beginAuthLocked() *authResult {
	res := &authResult{done: make(chan struct{})}
	m.state = StateAuthenticating
	m.pending = res
	go m.authenticate(res)
	return res
}

func (m *Manager) authenticate(res *authResult) {
	session, err := m.tryAuthenticate()

	m.mu.Lock()
	switch {
	case err == nil:
		m.state = StateValid
		m.session = session
		m.lastErr = nil
		m.logger.Info("authenticated", "user", session.UserID)
	case errors.Is(err, shared.ErrInvalidCredentials) || errors.Is(err, shared.ErrMissingCredentials):
		// Terminal until the user supplies new credentials.
		m.state = StateFailed
		m.lastErr = fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		err = m.lastErr
		m.logger.Error("authentication failed", "err", err)
	default:
		// Transient exhaustion: surface to current waiters, allow later retry.
		m.state = StateUnauthenticated
		m.lastErr = err
		m.logger.Warn("authentication attempt gave up", "err", err)
	}
	m.pending = nil
	m.mu.Unlock()

	res.session = session
	res.err = err
	close(res.done)
}

func (m *Manager) tryAuthenticate() (*models.Session, error) {
	creds, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMissingCredentials, err)
	}
	if creds == nil {
		return nil, shared.ErrMissingCredentials
	}

	var session *models.Session
	retryable := func(err error) bool {
		return errors.Is(err, shared.ErrConnectionFailed) || errors.Is(err, shared.ErrRateLimited)
	}
	err = m.backoff.Retry(context.Background(), retryable, func() error {
		var opErr error
		session, opErr = m.svc.Authenticate(context.Background(), *creds)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func waitAuth(ctx context.Context, res *authResult) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-res.done:
		return res.err
	}
}

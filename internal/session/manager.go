// Package session owns the client's authentication state: the bearer token,
// the identity derived from it, and the auto-logout timer armed for its
// expiry. A Manager is created explicitly and handed to whoever needs it.
package session

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"
)

// ErrInvalidToken is returned by Login for missing, malformed or expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// LoginPath is where unauthenticated callers are sent by Guard.
const LoginPath = "/login"

type User struct {
	Username string
}

type State struct {
	Token     string
	User      *User
	ExpiresAt *time.Time
}

type Option func(*Manager)

func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// OnLogout registers fn to run after the session leaves the logged-in state,
// whatever the cause (explicit logout, expiry, failed re-validation).
func OnLogout(fn func()) Option {
	return func(m *Manager) { m.onLogout = append(m.onLogout, fn) }
}

type Manager struct {
	mu       sync.Mutex
	store    Storage
	clock    Clock
	logger   *log.Logger
	onLogout []func()

	state State
	timer Timer
	// gen invalidates timer callbacks that fired while being cancelled.
	gen uint64
}

func New(store Storage, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		clock:  systemClock{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize restores the persisted token. Undecodable or expired tokens are
// cleared and yield a logged-out state.
func (m *Manager) Initialize() State {
	m.mu.Lock()

	stored, err := m.store.Load()
	if err != nil {
		m.logger.Printf("[auth] failed to read stored token: %v", err)
		stored = ""
	}

	m.state = State{}
	if stored != "" {
		payload, err := m.decode(stored)
		if err != nil || payload.Expired(m.clock.Now()) {
			m.clearStore()
		} else {
			m.state = stateFor(stored, payload)
		}
	}

	loggedOut := m.revalidateLocked()
	state := m.state
	m.mu.Unlock()

	if loggedOut {
		m.notifyLogout()
	}
	return state
}

func (m *Manager) Login(token string) error {
	m.mu.Lock()

	payload, err := m.decode(token)
	if err == nil && payload.Expired(m.clock.Now()) {
		err = errors.New("token expired")
	}
	if err != nil {
		m.clearStore()
		m.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if err := m.store.Save(token); err != nil {
		m.clearStore()
		m.mu.Unlock()
		return fmt.Errorf("failed to persist token: %w", err)
	}

	m.state = stateFor(token, payload)
	loggedOut := m.scheduleLocked(payload.ExpiresAt)
	m.mu.Unlock()

	if loggedOut {
		m.notifyLogout()
	}
	return nil
}

// Logout is safe to call when already logged out.
func (m *Manager) Logout() {
	m.mu.Lock()
	wasLoggedIn := m.logoutLocked()
	m.mu.Unlock()

	if wasLoggedIn {
		m.notifyLogout()
	}
}

// Revalidate re-checks the current token and re-arms the expiry timer.
func (m *Manager) Revalidate() {
	m.mu.Lock()
	loggedOut := m.revalidateLocked()
	m.mu.Unlock()

	if loggedOut {
		m.notifyLogout()
	}
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Token != ""
}

func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Token
}

func (m *Manager) User() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.User == nil {
		return nil
	}
	u := *m.state.User
	return &u
}

// Username is the derived identity, or "" when logged out or unnamed.
func (m *Manager) Username() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.User == nil {
		return ""
	}
	return m.state.User.Username
}

// ExpiresAt is nil when logged out or when the token carries no exp claim.
func (m *Manager) ExpiresAt() *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ExpiresAt
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Guard reports whether a protected location may be shown. When it may not,
// redirect points at the login page and carries the attempted location.
func (m *Manager) Guard(from string) (redirect string, ok bool) {
	if m.IsAuthenticated() {
		return "", true
	}
	if from == "" {
		return LoginPath, false
	}
	return LoginPath + "?from=" + url.QueryEscape(from), false
}

func (m *Manager) decode(token string) (*Payload, error) {
	payload, err := Decode(token)
	if err != nil {
		m.logger.Printf("[auth] failed to decode token: %v", err)
		return nil, err
	}
	return payload, nil
}

func (m *Manager) revalidateLocked() bool {
	if m.state.Token == "" {
		m.cancelTimerLocked()
		return false
	}
	payload, err := m.decode(m.state.Token)
	if err != nil || payload.Expired(m.clock.Now()) {
		return m.logoutLocked()
	}
	return m.scheduleLocked(payload.ExpiresAt)
}

// scheduleLocked arms the auto-logout timer, logging out synchronously when
// the expiry has already passed. It reports whether a logout happened.
func (m *Manager) scheduleLocked(expiresAt *time.Time) bool {
	m.cancelTimerLocked()
	if expiresAt == nil {
		return false
	}

	timeout := expiresAt.Sub(m.clock.Now())
	if timeout <= 0 {
		return m.logoutLocked()
	}

	gen := m.gen
	m.timer = m.clock.AfterFunc(timeout, func() { m.expire(gen) })
	return false
}

func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	wasLoggedIn := m.logoutLocked()
	m.mu.Unlock()

	if wasLoggedIn {
		m.logger.Printf("[auth] session expired")
		m.notifyLogout()
	}
}

func (m *Manager) cancelTimerLocked() {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) logoutLocked() bool {
	wasLoggedIn := m.state.Token != ""
	m.cancelTimerLocked()
	m.clearStore()
	m.state = State{}
	return wasLoggedIn
}

func (m *Manager) clearStore() {
	if err := m.store.Clear(); err != nil {
		m.logger.Printf("[auth] failed to clear stored token: %v", err)
	}
}

func (m *Manager) notifyLogout() {
	for _, fn := range m.onLogout {
		fn()
	}
}

func stateFor(token string, payload *Payload) State {
	s := State{Token: token, ExpiresAt: payload.ExpiresAt}
	if name := payload.DisplayName(); name != "" {
		s.User = &User{Username: name}
	}
	return s
}

// Package settings holds the values that may change while the tracker runs.
package settings

import (
	"errors"
	"sync"
	"time"
)

// ErrInvalidDelay is returned for a negative update delay.
var ErrInvalidDelay = errors.New("settings: update delay must not be negative")

// Settings is created once at startup and shared by reference. Reads vastly
// outnumber writes, so access goes through a read/write lock.
type Settings struct {
	mu          sync.RWMutex
	updateDelay time.Duration
	token       string
}

// New returns Settings with the given update delay in seconds and token.
func New(updateDelaySeconds int, token string) *Settings {
	if updateDelaySeconds < 0 {
		updateDelaySeconds = 0
	}
	return &Settings{
		updateDelay: time.Duration(updateDelaySeconds) * time.Second,
		token:       token,
	}
}

// UpdateDelay returns how long a queued update waits before it is sent.
func (s *Settings) UpdateDelay() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updateDelay
}

// SetUpdateDelay changes the delay, in whole seconds.
func (s *Settings) SetUpdateDelay(seconds int) error {
	if seconds < 0 {
		return ErrInvalidDelay
	}
	s.mu.Lock()
	s.updateDelay = time.Duration(seconds) * time.Second
	s.mu.Unlock()
	return nil
}

// Token returns the bearer token for the remote catalog.
func (s *Settings) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken replaces the bearer token.
func (s *Settings) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// View is a point-in-time copy of the settings for display.
type View struct {
	UpdateDelaySeconds int  `json:"updateDelaySeconds"`
	HasToken           bool `json:"hasToken"`
}

// View returns the current values. The token itself is never exposed.
func (s *Settings) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		UpdateDelaySeconds: int(s.updateDelay / time.Second),
		HasToken:           s.token != "",
	}
}

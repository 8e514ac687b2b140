// Package tokens holds the current session credentials. The in-memory copy
// is the single source of truth; every mutation is mirrored to durable
// storage so a restart can pick up where the last process left off.
package tokens

import (
	"context"
	"sync"

	"github.com/progalaxyelabs/stonescript-auth-go/log"
	"github.com/progalaxyelabs/stonescript-auth-go/storage"
)

// Store keeps the access and refresh tokens for the active session.
// Persistence failures (full disk, read-only storage) are logged and
// swallowed: the in-memory value remains authoritative.
type Store struct {
	mu      sync.RWMutex
	access  string
	refresh string

	durable storage.Store
	logger  log.Logger
}

// NewStore creates a token store over the given durable storage, rehydrating
// any previously persisted tokens.
func NewStore(durable storage.Store, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Store{durable: durable, logger: logger}
	if v, ok := durable.Get(storage.KeyAccessToken); ok {
		s.access = v
	}
	if v, ok := durable.Get(storage.KeyRefreshToken); ok {
		s.refresh = v
	}
	return s
}

// SetAccess replaces the access token.
func (s *Store) SetAccess(token string) {
	s.mu.Lock()
	s.access = token
	s.mu.Unlock()
	s.persist(storage.KeyAccessToken, token)
}

// SetRefresh replaces the refresh token.
func (s *Store) SetRefresh(token string) {
	s.mu.Lock()
	s.refresh = token
	s.mu.Unlock()
	s.persist(storage.KeyRefreshToken, token)
}

// SetBoth replaces both tokens in one mutation.
func (s *Store) SetBoth(access, refresh string) {
	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.mu.Unlock()
	s.persist(storage.KeyAccessToken, access)
	s.persist(storage.KeyRefreshToken, refresh)
}

// Access returns the current access token, empty when none is held.
func (s *Store) Access() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// Refresh returns the current refresh token, empty when none is held.
func (s *Store) Refresh() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// Clear drops both tokens from memory and durable storage.
func (s *Store) Clear() {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.mu.Unlock()

	if err := s.durable.Delete(storage.KeyAccessToken); err != nil {
		s.logger.Warn(context.Background(), "failed to clear persisted access token", map[string]any{"error": err.Error()})
	}
	if err := s.durable.Delete(storage.KeyRefreshToken); err != nil {
		s.logger.Warn(context.Background(), "failed to clear persisted refresh token", map[string]any{"error": err.Error()})
	}
}

// HasValid reports whether a non-empty access token is held. It never
// inspects token structure or expiry; a stale token stays "valid" until the
// server rejects it.
func (s *Store) HasValid() bool {
	return s.Access() != ""
}

func (s *Store) persist(key, value string) {
	var err error
	if value == "" {
		err = s.durable.Delete(key)
	} else {
		err = s.durable.Set(key, value)
	}
	if err != nil {
		s.logger.Warn(context.Background(), "token persistence failed, keeping in-memory value", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	}
}

package session

import (
    "sync"

    "github.com/roamstay/bookingflow/internal/model"
)

// TokenStore owns the credential pair.  The pair is the only mutable
// state shared across concurrent requests, so every access goes through
// this interface and implementations must be safe for concurrent use.
type TokenStore interface {
    // Pair returns the current credentials and whether any are present.
    Pair() (model.CredentialPair, bool)
    // Replace installs a complete new pair (login, registration, or a
    // rotating refresh).
    Replace(pair model.CredentialPair)
    // SetAccess swaps only the access token, keeping the refresh token
    // (non-rotating refresh).
    SetAccess(token string)
    // Clear destroys both credentials (logout, refresh failure, or
    // account deactivation).
    Clear()
}

// MemoryStore is the in-memory TokenStore used by default.  A mutex
// guards the pair; reads take the same lock so a refresh is never
// observed half-applied.
type MemoryStore struct {
    mu   sync.Mutex
    pair model.CredentialPair
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Pair() (model.CredentialPair, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.pair, !s.pair.Empty()
}

func (s *MemoryStore) Replace(pair model.CredentialPair) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.pair = pair
}

func (s *MemoryStore) SetAccess(token string) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.pair.AccessToken = token
}

func (s *MemoryStore) Clear() {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.pair = model.CredentialPair{}
}

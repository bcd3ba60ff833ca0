// Package kvstore provides the small persistent key-value slots the PawPilot
// clients keep between runs: the last-known-good bearer token, the signed-in
// identity and a display preference.
package kvstore

import (
	"context"
	"sync"
)

// Well-known keys.
const (
	// KeyFallbackToken holds the last credential fetched successfully.
	KeyFallbackToken = "token"

	// KeyDisplayPreference holds the UI theme preference.
	KeyDisplayPreference = "theme"

	// KeyIdentity holds the JSON-encoded signed-in identity.
	KeyIdentity = "auth:identity"

	// KeyRefreshToken holds the identity service refresh token.
	KeyRefreshToken = "auth:refresh_token" // #nosec G101 -- key name, not a credential
)

// Store is a string key-value store. Get reports ok=false for missing keys;
// Remove of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

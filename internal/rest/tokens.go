package rest

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SessionSource acquires a fresh session token from the Ring API.
// Client implements this; the indirection exists so Tokens can be
// tested without a live transport.
type SessionSource interface {
	AcquireSession(ctx context.Context) (string, error)
}

// Tokens owns the current session token and serialises acquisition.
//
// Concurrent callers hitting an empty store share a single in-flight
// acquisition and all observe the same token or the same failure.
// Invalidate discards the current value so the next Current call
// triggers a fresh acquisition; requests already holding the prior
// value are unaffected.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Tokens struct {
	source SessionSource

	group singleflight.Group

	mu    sync.RWMutex
	token string
}

// NewTokens creates a token store backed by the given session source.
func NewTokens(source SessionSource) *Tokens {
	return &Tokens{source: source}
}

// Current returns the session token, acquiring one if none is cached.
//
// Returns:
//   - string: The current session token
//   - error: Wraps ErrAuthFailed if acquisition fails
func (t *Tokens) Current(ctx context.Context) (string, error) {
	t.mu.RLock()
	token := t.token
	t.mu.RUnlock()

	if token != "" {
		return token, nil
	}

	v, err, _ := t.group.Do("session", func() (any, error) {
		// Another caller may have filled the store while we waited
		// for the flight slot.
		t.mu.RLock()
		cached := t.token
		t.mu.RUnlock()
		if cached != "" {
			return cached, nil
		}

		fresh, acquireErr := t.source.AcquireSession(ctx)
		if acquireErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrAuthFailed, acquireErr)
		}

		t.mu.Lock()
		t.token = fresh
		t.mu.Unlock()

		return fresh, nil
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// Invalidate discards the cached token. The next Current call will
// acquire a fresh one.
func (t *Tokens) Invalidate() {
	t.mu.Lock()
	t.token = ""
	t.mu.Unlock()
}

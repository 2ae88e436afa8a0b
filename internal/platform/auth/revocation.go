package auth

import (
	"sync"
	"time"
)

// TokenRevocationStore tracks logged-out session tokens by jti, plus a
// per-user cutoff that invalidates every token issued before it (used on
// deactivation, password changes and resets). Entries expire with the token.
// The store is process local; SessionConfig.Accounts covers deactivation
// across restarts.
type TokenRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> token expiry
	cutoffs map[string]cutoff    // user id -> issued-before cutoff
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

type cutoff struct {
	before    time.Time
	expiresAt time.Time
}

// NewTokenRevocationStore creates a store and starts a goroutine that drops
// expired entries every interval. Call Close to stop it.
func NewTokenRevocationStore(interval time.Duration) *TokenRevocationStore {
	s := &TokenRevocationStore{
		entries: make(map[string]time.Time),
		cutoffs: make(map[string]cutoff),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if interval > 0 {
		go s.cleanupLoop(interval)
	}
	return s
}

// Revoke invalidates a single token until its natural expiry.
func (s *TokenRevocationStore) Revoke(jti string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = expiresAt
}

// RevokeUser invalidates every token for userID issued up to and including
// the current second. maxTTL bounds how long the cutoff must be remembered.
func (s *TokenRevocationStore) RevokeUser(userID string, maxTTL time.Duration) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs[userID] = cutoff{before: now, expiresAt: now.Add(maxTTL)}
}

// IsRevoked checks a parsed token against both the jti list and the
// owner's cutoff.
func (s *TokenRevocationStore) IsRevoked(claims *Claims) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.entries[claims.ID]; ok {
		return true
	}
	if c, ok := s.cutoffs[claims.Subject]; ok && claims.IssuedAt != nil {
		// iat has second precision, so a token minted earlier in the
		// cutoff's second compares equal to it and must be revoked too.
		return !claims.IssuedAt.Time.After(c.before.Truncate(time.Second))
	}
	return false
}

// Count returns the number of individually revoked tokens.
func (s *TokenRevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (s *TokenRevocationStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *TokenRevocationStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *TokenRevocationStore) cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for jti, exp := range s.entries {
		if now.After(exp) {
			delete(s.entries, jti)
		}
	}
	for uid, c := range s.cutoffs {
		if now.After(c.expiresAt) {
			delete(s.cutoffs, uid)
		}
	}
}

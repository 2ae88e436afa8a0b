package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func claimsFor(jti, user string, issuedAt time.Time) *Claims {
	return &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:       jti,
		Subject:  user,
		IssuedAt: jwt.NewNumericDate(issuedAt),
	}}
}

func TestRevoke_and_IsRevoked(t *testing.T) {
	store := NewTokenRevocationStore(0)
	defer store.Close()

	store.Revoke("token-abc-123", time.Now().Add(time.Hour))

	if !store.IsRevoked(claimsFor("token-abc-123", "u1", time.Now())) {
		t.Error("expected jti to be revoked")
	}
	if store.IsRevoked(claimsFor("unknown-jti", "u1", time.Now())) {
		t.Error("expected unknown jti to not be revoked")
	}
}

func TestRevokeUser_CutsOffOlderTokens(t *testing.T) {
	store := NewTokenRevocationStore(0)
	defer store.Close()

	now := time.Date(2024, 5, 1, 10, 0, 0, 500, time.UTC)
	store.now = func() time.Time { return now }
	store.RevokeUser("user-42", time.Hour)

	if !store.IsRevoked(claimsFor("a", "user-42", now.Add(-time.Minute))) {
		t.Error("expected token issued before cutoff to be revoked")
	}
	if store.IsRevoked(claimsFor("b", "user-42", now.Add(time.Minute))) {
		t.Error("expected token issued after cutoff to stay valid")
	}
	if store.IsRevoked(claimsFor("c", "user-99", now.Add(-time.Minute))) {
		t.Error("expected other users to be unaffected")
	}
}

func TestRevokeUser_SameSecond(t *testing.T) {
	store := NewTokenRevocationStore(0)
	defer store.Close()

	issued := time.Date(2024, 5, 1, 10, 0, 0, 400*int(time.Millisecond), time.UTC)
	revokedAt := time.Date(2024, 5, 1, 10, 0, 0, 900*int(time.Millisecond), time.UTC)
	store.now = func() time.Time { return revokedAt }
	store.RevokeUser("user-42", time.Hour)

	if !store.IsRevoked(claimsFor("a", "user-42", issued)) {
		t.Error("expected token issued earlier in the cutoff second to be revoked")
	}
	if store.IsRevoked(claimsFor("b", "user-42", revokedAt.Add(time.Second))) {
		t.Error("expected token issued in the next second to stay valid")
	}
}

func TestRevokeUser_ThroughIssuer(t *testing.T) {
	store := NewTokenRevocationStore(0)
	defer store.Close()

	issued := time.Date(2024, 5, 1, 10, 0, 0, 400*int(time.Millisecond), time.UTC)
	iss := newTestIssuer(issued)
	tok, _, err := iss.Issue("user-42", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	store.now = func() time.Time { return issued.Add(500 * time.Millisecond) }
	store.RevokeUser("user-42", time.Hour)

	if !store.IsRevoked(claims) {
		t.Error("expected a parsed token from the same second to be revoked")
	}
}

func TestCleanup_RemovesExpired(t *testing.T) {
	store := NewTokenRevocationStore(0)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }
	store.Revoke("old", now.Add(-time.Minute))
	store.Revoke("fresh", now.Add(time.Hour))
	store.RevokeUser("user-1", -time.Second)

	store.cleanup()

	if store.Count() != 1 {
		t.Errorf("expected 1 entry after cleanup, got %d", store.Count())
	}
	if !store.IsRevoked(claimsFor("fresh", "x", now)) {
		t.Error("expected fresh entry to survive cleanup")
	}
	if store.IsRevoked(claimsFor("z", "user-1", now.Add(-time.Hour))) {
		t.Error("expected expired cutoff to be dropped")
	}
}

func TestClose_Idempotent(t *testing.T) {
	store := NewTokenRevocationStore(time.Minute)
	store.Close()
	store.Close()
}

func TestRevocationStore_Concurrent(t *testing.T) {
	store := NewTokenRevocationStore(0)
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			store.Revoke(string(rune('a'+i%26))+time.Now().String(), time.Now().Add(time.Hour))
		}(i)
		go func() {
			defer wg.Done()
			store.IsRevoked(claimsFor("reader", "u", time.Now()))
		}()
	}
	wg.Wait()
}

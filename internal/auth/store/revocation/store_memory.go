package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryTRL keeps revocations in process. Used when Redis is not configured.
type InMemoryTRL struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	clock   func() time.Time
}

func NewInMemoryTRL() *InMemoryTRL {
	return &InMemoryTRL{
		revoked: make(map[string]time.Time),
		clock:   time.Now,
	}
}

func (t *InMemoryTRL) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = t.clock().Add(ttl)
	t.evictExpiredLocked()
	return nil
}

func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	expiresAt, ok := t.revoked[jti]
	if !ok {
		return false, nil
	}
	if !t.clock().Before(expiresAt) {
		delete(t.revoked, jti)
		return false, nil
	}
	return true, nil
}

func (t *InMemoryTRL) evictExpiredLocked() {
	now := t.clock()
	for jti, exp := range t.revoked {
		if !now.Before(exp) {
			delete(t.revoked, jti)
		}
	}
}

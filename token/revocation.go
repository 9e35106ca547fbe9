package token

import (
	"sync"
	"time"
)

// RevokedTokens remembers the jti of access tokens that were signed out
// before they expired. Entries are dropped once the token would have expired
// anyway.
type RevokedTokens struct {
	revoked map[string]time.Time
	lock    sync.RWMutex
}

func NewRevokedTokens() *RevokedTokens {
	return &RevokedTokens{revoked: make(map[string]time.Time)}
}

func (r *RevokedTokens) Add(jti string, exp time.Time) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.revoked[jti] = exp
}

func (r *RevokedTokens) IsRevoked(jti string) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	_, ok := r.revoked[jti]
	return ok
}

// Cleanup removes entries that expired before now and reports how many remain.
func (r *RevokedTokens) Cleanup(now time.Time) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	for jti, exp := range r.revoked {
		if now.After(exp) {
			delete(r.revoked, jti)
		}
	}
	return len(r.revoked)
}

package admin

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CapabilityManageRules gates every mutating admin operation.
const CapabilityManageRules = "manage-rules"

// nonceTTL is how long an issued anti-forgery nonce stays valid.
// Mirrors the short-lived form-token window of the original admin UI.
const nonceTTL = 10 * time.Minute

// Authorizer checks capability tokens and anti-forgery nonces for the
// admin surface. It is deliberately not an authentication system: the
// operator hands out opaque bearer tokens bound to capability sets,
// and the core only ever consumes the resulting boolean facts.
//
// Thread-safety: safe for concurrent use.
type Authorizer struct {
	tokens map[string][]string // token -> capabilities

	mu     sync.Mutex
	nonces map[string]nonceRecord
	now    func() time.Time
}

type nonceRecord struct {
	token   string
	expires time.Time
}

// NewAuthorizer creates an Authorizer from a token-to-capabilities
// table.
func NewAuthorizer(tokens map[string][]string) *Authorizer {
	return &Authorizer{
		tokens: tokens,
		nonces: make(map[string]nonceRecord),
		now:    time.Now,
	}
}

// Can reports whether the bearer token holds the given capability.
// Token comparison is constant-time.
func (a *Authorizer) Can(token, capability string) bool {
	for candidate, caps := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) != 1 {
			continue
		}
		for _, c := range caps {
			if c == capability {
				return true
			}
		}
		return false
	}
	return false
}

// IssueNonce creates a fresh anti-forgery nonce bound to the given
// bearer token. Nonces are UUIDv7, so they are unguessable and
// time-sortable in logs.
func (a *Authorizer) IssueNonce(token string) (nonce string, expires time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pruneLocked()

	nonce = uuid.Must(uuid.NewV7()).String()
	expires = a.now().Add(nonceTTL)
	a.nonces[nonce] = nonceRecord{token: token, expires: expires}
	return nonce, expires
}

// CheckNonce reports whether the nonce was issued to the same bearer
// token and has not expired. Valid nonces stay usable for their whole
// window, matching the original admin transport, which reuses one
// nonce across an editing session.
func (a *Authorizer) CheckNonce(token, nonce string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.nonces[nonce]
	if !ok {
		return false
	}
	if a.now().After(rec.expires) {
		delete(a.nonces, nonce)
		return false
	}
	return subtle.ConstantTimeCompare([]byte(rec.token), []byte(token)) == 1
}

// pruneLocked drops expired nonces. Caller must hold a.mu.
func (a *Authorizer) pruneLocked() {
	now := a.now()
	for nonce, rec := range a.nonces {
		if now.After(rec.expires) {
			delete(a.nonces, nonce)
		}
	}
}

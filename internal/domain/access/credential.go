package access

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/quotedesk/backend/internal/domain/shared"
)

// State represents where a credential sits in the gateway state machine:
// a pending credential awaits redemption, a redeemed one backs an
// authenticated session until it expires.
type State string

const (
	StatePending  State = "pending"
	StateRedeemed State = "redeemed"
)

// Credential is a passwordless, one-time, time-bounded grant to view a
// single document resource. The scope is fixed at issuance and can never
// be widened afterwards.
type Credential struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Domain    string    `json:"domain"`
	Scope     string    `json:"scope"`
	State     State     `json:"state"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewCredential issues a credential for the given subject, scoped to the
// exact resource path that was originally requested.
func NewCredential(email, domain, scope string, ttl time.Duration) (*Credential, error) {
	if email == "" || domain == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Credential subject is incomplete")
	}
	if scope == "" || !strings.HasPrefix(scope, "/") {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Credential scope must be a resource path")
	}
	if ttl <= 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Credential lifetime must be positive")
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Credential{
		Token:     token,
		Email:     strings.ToLower(email),
		Domain:    domain,
		Scope:     scope,
		State:     StatePending,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// IsExpired returns true once the credential lifetime has elapsed
func (c *Credential) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Redeem consumes the credential. A credential redeems exactly once;
// expired or already-redeemed credentials are refused with an opaque
// access denial so callers cannot probe credential state.
func (c *Credential) Redeem(now time.Time) error {
	if c.State != StatePending {
		return shared.ErrAccessDenied
	}
	if c.IsExpired(now) {
		return shared.ErrAccessDenied
	}
	c.State = StateRedeemed
	return nil
}

// Authorizes reports whether the credential unlocks the given resource.
// Scope matching is exact: a credential never authorizes anything beyond
// the path it was issued for.
func (c *Credential) Authorizes(resource string) bool {
	return c.Scope == resource
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", shared.ErrTransient
	}
	return hex.EncodeToString(buf), nil
}

package access

import (
	"context"
	"time"
)

// CredentialStore persists pending credentials until they are redeemed
// or expire. Implementations must make Consume atomic: a credential is
// handed out to at most one caller.
type CredentialStore interface {
	// Put stores a pending credential with a TTL matching its expiry
	Put(ctx context.Context, cred *Credential) error

	// Consume atomically fetches and removes a pending credential by token.
	// Returns shared.ErrNotFound for unknown, expired, or already-consumed
	// tokens.
	Consume(ctx context.Context, token string) (*Credential, error)
}

// RateLimiter bounds credential issuance per subject so the gateway
// cannot be used as a domain-enumeration oracle.
type RateLimiter interface {
	// Allow reports whether the subject may make another attempt within
	// the window. Implementations fail open on backend errors; admission
	// itself still applies.
	Allow(ctx context.Context, subject string, limit int, window time.Duration) (bool, error)
}

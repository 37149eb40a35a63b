package partner

import (
	"context"

	"github.com/google/uuid"
)

// ClientRepository is the read-only view of the client registry used by
// the quote and access contexts. Registry writes happen in another system.
type ClientRepository interface {
	// FindByID returns the client, including soft-deleted ones
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindActiveByID returns the client only when active and not soft-deleted
	FindActiveByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindActiveByContactDomain returns any active, non-soft-deleted client
	// with a registered contact email in the given domain.
	// Returns shared.ErrNotFound when no such client exists.
	FindActiveByContactDomain(ctx context.Context, domain string) (*Client, error)
}

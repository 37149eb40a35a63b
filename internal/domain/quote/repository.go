package quote

import (
	"context"

	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/domain/shared"
)

// FolioSequencer issues globally unique, monotonic folios.
// Allocation is exactly-once: an issued folio is never handed out twice,
// and implementations must not derive folios from timestamps or other
// non-authoritative sources.
type FolioSequencer interface {
	// IssueFolio allocates the next folio. Returns shared.ErrTransient
	// (wrapped) when the allocation backend is unreachable.
	IssueFolio(ctx context.Context) (string, error)
}

// Repository persists quote lineages
type Repository interface {
	// Save inserts the first revision of a lineage.
	// Returns shared.ErrConflict if the (folio, version) pair already exists.
	Save(ctx context.Context, q *Quote) error

	// SaveRevision inserts a derived revision. The read of the parent's
	// current max version and the insert happen in one transaction; the
	// loser of a concurrent race gets shared.ErrConflict.
	SaveRevision(ctx context.Context, q *Quote) error

	// FindByID returns the exact revision referenced by id
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)

	// FindLatestByFolio returns the lineage member with the highest version
	FindLatestByFolio(ctx context.Context, folio string) (*Quote, error)

	// FindByFolio returns every revision of a lineage ordered by version
	FindByFolio(ctx context.Context, folio string) ([]Quote, error)

	// UpdateStatus persists a status transition with a compare-and-set on
	// the previous status. The precondition check and the write are one
	// atomic operation; the loser of a concurrent transition gets
	// shared.ErrConflict. No other field of the revision is touched.
	UpdateStatus(ctx context.Context, q *Quote, previous Status) error

	// FindAll lists quotes with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Quote, error)

	// Count counts quotes matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

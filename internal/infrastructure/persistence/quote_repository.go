package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/domain/quote"
	"github.com/quotedesk/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormQuoteRepository implements quote.Repository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// Save inserts the first revision of a lineage
func (r *GormQuoteRepository) Save(ctx context.Context, q *quote.Quote) error {
	if err := r.db.WithContext(ctx).Create(q).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrConflict
		}
		return err
	}
	return nil
}

// SaveRevision inserts a derived revision. The version check and the
// insert run in one transaction; the unique index on (folio, version)
// guarantees that of two concurrent revisions of the same parent at
// most one lands, the other gets shared.ErrConflict.
func (r *GormQuoteRepository) SaveRevision(ctx context.Context, q *quote.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxVersion int
		if err := tx.Model(&quote.Quote{}).
			Where("folio = ?", q.Folio).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}
		if maxVersion == 0 {
			return shared.ErrNotFound
		}
		if q.Version != maxVersion+1 {
			return shared.ErrConflict
		}

		if err := tx.Create(q).Error; err != nil {
			if isDuplicateKey(err) {
				return shared.ErrConflict
			}
			return err
		}
		return nil
	})
}

// FindByID finds the exact revision referenced by id
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	var q quote.Quote
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// FindLatestByFolio returns the lineage member with the highest version,
// regardless of its status
func (r *GormQuoteRepository) FindLatestByFolio(ctx context.Context, folio string) (*quote.Quote, error) {
	var q quote.Quote
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("folio = ?", folio).
		Order("version DESC").
		First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// FindByFolio returns every revision of a lineage ordered by version
func (r *GormQuoteRepository) FindByFolio(ctx context.Context, folio string) ([]quote.Quote, error) {
	var quotes []quote.Quote
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("folio = ?", folio).
		Order("version ASC").
		Find(&quotes).Error; err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, shared.ErrNotFound
	}
	return quotes, nil
}

// UpdateStatus persists a status transition with a compare-and-set on the
// previous status. Only the status column and its timestamps change.
func (r *GormQuoteRepository) UpdateStatus(ctx context.Context, q *quote.Quote, previous quote.Status) error {
	result := r.db.WithContext(ctx).
		Model(&quote.Quote{}).
		Where("id = ? AND status = ?", q.ID, previous).
		Updates(map[string]interface{}{
			"status":        q.Status,
			"submitted_at":  q.SubmittedAt,
			"accepted_at":   q.AcceptedAt,
			"rejected_at":   q.RejectedAt,
			"invoiced_at":   q.InvoicedAt,
			"production_at": q.ProductionAt,
			"updated_at":    q.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the revision vanished or another transition won the race
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&quote.Quote{}).
			Where("id = ?", q.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConflict
	}
	return nil
}

// FindAll lists quotes with filtering and pagination
func (r *GormQuoteRepository) FindAll(ctx context.Context, filter shared.Filter) ([]quote.Quote, error) {
	var quotes []quote.Quote
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&quote.Quote{}).Preload("Items"),
		filter,
	)
	if err := query.Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

// Count counts quotes matching the filter
func (r *GormQuoteRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&quote.Quote{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormQuoteRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Sorting goes through the whitelist; a field not on it falls back
	// to created_at rather than reaching the SQL as-is.
	sortField := ValidateSortField(filter.OrderBy, QuoteSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	return query
}

func (r *GormQuoteRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("folio LIKE ? OR client_name LIKE ?", pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "client_id":
			query = query.Where("client_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "folio":
			query = query.Where("folio = ?", value)
		case "latest_only":
			if latest, ok := value.(bool); ok && latest {
				query = query.Where(
					"version = (SELECT MAX(version) FROM quotes q2 WHERE q2.folio = quotes.folio)")
			}
		}
	}

	return query
}

// isDuplicateKey reports whether the error is a unique constraint violation
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

var _ quote.Repository = (*GormQuoteRepository)(nil)

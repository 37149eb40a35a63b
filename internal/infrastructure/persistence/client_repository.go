package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/domain/partner"
	"github.com/quotedesk/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormClientRepository implements partner.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID returns the client, including soft-deleted ones
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	var client partner.Client
	if err := r.db.WithContext(ctx).
		Unscoped().
		Preload("Contacts").
		First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

// FindActiveByID returns the client only when active and not soft-deleted
func (r *GormClientRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	var client partner.Client
	if err := r.db.WithContext(ctx).
		Preload("Contacts").
		Where("id = ? AND status = ?", id, partner.ClientStatusActive).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

// FindActiveByContactDomain returns any active client with a registered
// contact in the given domain. The lookup is the authorization source for
// the access gateway, so a database failure surfaces as shared.ErrTransient
// rather than a miss: an outage must never be mistaken for "unknown domain".
func (r *GormClientRepository) FindActiveByContactDomain(ctx context.Context, domain string) (*partner.Client, error) {
	var client partner.Client
	err := r.db.WithContext(ctx).
		Preload("Contacts").
		Joins("JOIN client_contacts ON client_contacts.client_id = clients.id").
		Where("client_contacts.domain = ? AND clients.status = ?", domain, partner.ClientStatusActive).
		First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, errors.Join(shared.ErrTransient, err)
	}
	return &client, nil
}

// Save creates or updates a client with its contacts. Used for seeding
// and registry synchronization.
func (r *GormClientRepository) Save(ctx context.Context, client *partner.Client) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(client).Error; err != nil {
			return err
		}
		for i := range client.Contacts {
			client.Contacts[i].ClientID = client.ID
			if err := tx.Save(&client.Contacts[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var _ partner.ClientRepository = (*GormClientRepository)(nil)

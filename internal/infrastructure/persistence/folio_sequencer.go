package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quotedesk/backend/internal/domain/quote"
	"github.com/quotedesk/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	folioPrefix     = "Q-"
	folioSeqName    = "quotes"
	folioFirstValue = 1000
)

// folioSequence is the authoritative allocation counter. NextValue is the
// folio number that the next IssueFolio call will hand out.
type folioSequence struct {
	Name      string    `gorm:"type:varchar(50);primaryKey"`
	NextValue int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (folioSequence) TableName() string {
	return "folio_sequences"
}

// GormFolioSequencer allocates folios from a database-backed counter.
// The counter row is locked for the duration of the allocation, so two
// concurrent calls can never observe the same value. Folios are never
// derived from timestamps or row scans.
type GormFolioSequencer struct {
	db *gorm.DB
}

// NewGormFolioSequencer creates a new GormFolioSequencer
func NewGormFolioSequencer(db *gorm.DB) *GormFolioSequencer {
	return &GormFolioSequencer{db: db}
}

// IssueFolio allocates the next folio in one transaction
func (s *GormFolioSequencer) IssueFolio(ctx context.Context) (string, error) {
	var allocated int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq folioSequence
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", folioSeqName).
			First(&seq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seq = folioSequence{Name: folioSeqName, NextValue: folioFirstValue, UpdatedAt: time.Now()}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		allocated = seq.NextValue
		seq.NextValue++
		seq.UpdatedAt = time.Now()
		return tx.Save(&seq).Error
	})
	if err != nil {
		return "", fmt.Errorf("folio allocation failed: %w", errors.Join(shared.ErrTransient, err))
	}

	return fmt.Sprintf("%s%d", folioPrefix, allocated), nil
}

var _ quote.FolioSequencer = (*GormFolioSequencer)(nil)

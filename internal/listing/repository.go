// File: internal/listing/repository.go
package listing

import (
	"context"
	"errors"
	"time"

	"localfelo_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for listing data operations.
type Repository interface {
	Create(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status ListingStatus) error
	FindExpiredListings(ctx context.Context, now time.Time) ([]Listing, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM listing repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, listing *Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	var l Listing
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Listing not found.")
		}
		return nil, err
	}
	return &l, nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status ListingStatus) error {
	res := r.db.WithContext(ctx).Model(&Listing{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Listing not found.")
	}
	return nil
}

// FindExpiredListings returns active listings whose expiry has passed.
func (r *gormRepository) FindExpiredListings(ctx context.Context, now time.Time) ([]Listing, error) {
	var listings []Listing
	err := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ? AND status = ?", now, StatusActive).
		Find(&listings).Error
	return listings, err
}

// File: internal/profile/repository.go
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"localfelo_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for profile data operations.
type Repository interface {
	// Create inserts p, leaving out any columns named in omit.
	Create(ctx context.Context, p *Profile, omit ...string) error
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	FindByAuthUserID(ctx context.Context, authUserID string) (*Profile, error)
	FindByClientToken(ctx context.Context, token string) (*Profile, error)
	// UpdateFields writes the given columns. A missing profile yields common.ErrNotFound.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM profile repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, p *Profile, omit ...string) error {
	if p.Email != nil {
		*p.Email = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	q := r.db.WithContext(ctx)
	if len(omit) > 0 {
		q = q.Omit(omit...)
	}
	if err := q.Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return common.ErrConflict.WithDetails("Profile already exists for this account.")
		}
		return err
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormRepository) FindByAuthUserID(ctx context.Context, authUserID string) (*Profile, error) {
	return r.first(ctx, "auth_user_id = ?", authUserID)
}

func (r *gormRepository) FindByClientToken(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, common.ErrNotFound.WithDetails("Profile not found.")
	}
	return r.first(ctx, "client_token = ?", token)
}

func (r *gormRepository) first(ctx context.Context, query string, args ...interface{}) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).Where(query, args...).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Profile not found.")
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&Profile{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update profile %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Profile not found.")
	}
	return nil
}

func (r *gormRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&Profile{}).Order("created_at").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// File: internal/area/repository.go
package area

import (
	"context"
	"errors"
	"strings"

	"localfelo_backend/internal/common"

	"gorm.io/gorm"
)

// Repository defines data operations over the city/area/sub-area hierarchy.
type Repository interface {
	ListCities(ctx context.Context) ([]City, error)
	FindCityByID(ctx context.Context, id string) (*City, error)
	ListAreasByCity(ctx context.Context, cityID string) ([]Area, error)
	FindAreaByID(ctx context.Context, id string) (*Area, error)
	ListAllAreas(ctx context.Context) ([]Area, error)
	SearchAreas(ctx context.Context, query, cityID string, limit int) ([]Area, error)
	CreateArea(ctx context.Context, area *Area) error
	ListSubAreasByArea(ctx context.Context, areaID string) ([]SubArea, error)
	FindSubAreaByID(ctx context.Context, id string) (*SubArea, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM area repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ListCities(ctx context.Context) ([]City, error) {
	var cities []City
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *gormRepository) FindCityByID(ctx context.Context, id string) (*City, error) {
	var city City
	if err := r.db.WithContext(ctx).First(&city, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("City not found.")
		}
		return nil, err
	}
	return &city, nil
}

func (r *gormRepository) ListAreasByCity(ctx context.Context, cityID string) ([]Area, error) {
	var areas []Area
	err := r.db.WithContext(ctx).Preload("City").Where("city_id = ?", cityID).Order("name ASC").Find(&areas).Error
	if err != nil {
		return nil, err
	}
	return areas, nil
}

func (r *gormRepository) FindAreaByID(ctx context.Context, id string) (*Area, error) {
	var a Area
	if err := r.db.WithContext(ctx).Preload("City").First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Area not found.")
		}
		return nil, err
	}
	return &a, nil
}

func (r *gormRepository) ListAllAreas(ctx context.Context) ([]Area, error) {
	var areas []Area
	if err := r.db.WithContext(ctx).Preload("City").Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

func (r *gormRepository) SearchAreas(ctx context.Context, query, cityID string, limit int) ([]Area, error) {
	var areas []Area
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := r.db.WithContext(ctx).Preload("City").Where("LOWER(name) LIKE ?", pattern)
	if cityID != "" {
		q = q.Where("city_id = ?", cityID)
	}
	if err := q.Order("name ASC").Limit(limit).Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

func (r *gormRepository) CreateArea(ctx context.Context, area *Area) error {
	err := r.db.WithContext(ctx).Create(area).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return common.ErrConflict.WithDetails("Area with this slug already exists.")
		}
		return err
	}
	return nil
}

func (r *gormRepository) ListSubAreasByArea(ctx context.Context, areaID string) ([]SubArea, error) {
	var subs []SubArea
	if err := r.db.WithContext(ctx).Where("area_id = ?", areaID).Order("name ASC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *gormRepository) FindSubAreaByID(ctx context.Context, id string) (*SubArea, error) {
	var s SubArea
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Sub-area not found.")
		}
		return nil, err
	}
	return &s, nil
}

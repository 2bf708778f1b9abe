// File: internal/listing/model.go
package listing

import (
	"time"

	"localfelo_backend/internal/common"

	"github.com/google/uuid"
)

type ListingStatus string

const (
	StatusActive       ListingStatus = "active"
	StatusSold         ListingStatus = "sold"
	StatusExpired      ListingStatus = "expired"
	StatusAdminRemoved ListingStatus = "admin_removed"
)

// Listing is the subset of marketplace listing columns needed to open a listing by id.
type Listing struct {
	common.BaseModel
	OwnerID   uuid.UUID     `gorm:"type:uuid;not null;index"`
	Title     string        `gorm:"type:varchar(200);not null"`
	Price     *float64      `gorm:"type:numeric(12,2)"`
	Status    ListingStatus `gorm:"type:varchar(32);not null;default:'active';index"`
	CityID    *string       `gorm:"type:varchar(64)"`
	AreaID    *string       `gorm:"type:varchar(64);index"`
	Latitude  *float64
	Longitude *float64
	ExpiresAt *time.Time `gorm:"index"`
}

// TableName specifies the table name for the Listing model.
func (Listing) TableName() string {
	return "listings"
}

// Visible reports whether the listing can be opened by anyone other than its owner.
func (l *Listing) Visible() bool {
	return l.Status == StatusActive || l.Status == StatusSold
}

// ListingResponse defines the structure for listing data sent in API responses.
type ListingResponse struct {
	ID         uuid.UUID     `json:"id"`
	OwnerID    uuid.UUID     `json:"owner_id"`
	Title      string        `json:"title"`
	Price      *float64      `json:"price,omitempty"`
	Status     ListingStatus `json:"status"`
	CityID     *string       `json:"city_id,omitempty"`
	AreaID     *string       `json:"area_id,omitempty"`
	Latitude   *float64      `json:"latitude,omitempty"`
	Longitude  *float64      `json:"longitude,omitempty"`
	DistanceKM *float64      `json:"distance_km,omitempty"`
	ExpiresAt  *time.Time    `json:"expires_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// ToListingResponse converts a Listing model to a ListingResponse DTO.
func ToListingResponse(l *Listing) ListingResponse {
	return ListingResponse{
		ID:        l.ID,
		OwnerID:   l.OwnerID,
		Title:     l.Title,
		Price:     l.Price,
		Status:    l.Status,
		CityID:    l.CityID,
		AreaID:    l.AreaID,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		ExpiresAt: l.ExpiresAt,
		CreatedAt: l.CreatedAt,
	}
}

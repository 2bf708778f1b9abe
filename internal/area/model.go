// File: internal/area/model.go
package area

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// City is the top level of the location hierarchy.
type City struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"slug"`
	State     string    `gorm:"type:varchar(100)" json:"state,omitempty"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (City) TableName() string { return "cities" }

// Area is the second level. Its coordinates are the only ones used for distance math.
type Area struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	CityID    string    `gorm:"type:varchar(64);not null;index" json:"city_id"`
	City      *City     `gorm:"foreignKey:CityID;references:ID" json:"city,omitempty"`
	Name      string    `gorm:"type:varchar(120);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(160);not null;uniqueIndex" json:"slug"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	Pincode   string    `gorm:"type:varchar(12)" json:"pincode,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Area) TableName() string { return "areas" }

// SubArea refines an area for display. Its coordinates never feed distance math.
type SubArea struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	AreaID    string    `gorm:"type:varchar(64);not null;index" json:"area_id"`
	Name      string    `gorm:"type:varchar(120);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(200);not null;uniqueIndex" json:"slug"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SubArea) TableName() string { return "sub_areas" }

func (c *City) BeforeCreate(tx *gorm.DB) error {
	c.Slug = ensureSlug(c.Slug, c.Name)
	if c.ID == "" {
		c.ID = c.Slug
	}
	return nil
}

func (a *Area) BeforeCreate(tx *gorm.DB) error {
	a.Slug = ensureSlug(a.Slug, a.CityID+" "+a.Name)
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func (s *SubArea) BeforeCreate(tx *gorm.DB) error {
	s.Slug = ensureSlug(s.Slug, s.AreaID+" "+s.Name)
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func ensureSlug(current, from string) string {
	if strings.TrimSpace(current) != "" {
		return slug.Make(current)
	}
	return slug.Make(from)
}

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// --- DTOs ---

// AreaResponse is an area with its city name resolved.
type AreaResponse struct {
	ID        string  `json:"id"`
	CityID    string  `json:"city_id"`
	City      string  `json:"city,omitempty"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Pincode   string  `json:"pincode,omitempty"`
}

// ToAreaResponse converts an Area model to an AreaResponse DTO.
func ToAreaResponse(a *Area) AreaResponse {
	resp := AreaResponse{
		ID:        a.ID,
		CityID:    a.CityID,
		Name:      a.Name,
		Slug:      a.Slug,
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		Pincode:   a.Pincode,
	}
	if a.City != nil {
		resp.City = a.City.Name
	}
	return resp
}

// NearestAreaResponse is returned by the nearest-area lookup.
type NearestAreaResponse struct {
	Area       AreaResponse `json:"area"`
	DistanceKM float64      `json:"distance_km"`
}

// AdminCreateAreaRequest for admin creating areas
type AdminCreateAreaRequest struct {
	CityID    string   `json:"city_id" binding:"required,max=64"`
	Name      string   `json:"name" binding:"required,max=120"`
	Slug      string   `json:"slug,omitempty" binding:"omitempty,max=160"`
	Latitude  *float64 `json:"latitude" binding:"required,latitude"`
	Longitude *float64 `json:"longitude" binding:"required,longitude"`
	Pincode   string   `json:"pincode,omitempty" binding:"omitempty,max=12"`
}

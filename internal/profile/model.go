// File: internal/profile/model.go
package profile

import (
	"time"

	"localfelo_backend/internal/common"

	"github.com/google/uuid"
)

// SubAreaColumns are the optional profile columns older deployments lack.
var SubAreaColumns = []string{"sub_area_id", "sub_area"}

// Profile is the lightweight user record keyed by the auth provider's user id.
type Profile struct {
	common.BaseModel
	AuthUserID  *string `gorm:"column:auth_user_id;type:varchar(128);uniqueIndex"`
	Name        string  `gorm:"type:varchar(150);not null;default:''"`
	Email       *string `gorm:"type:varchar(255);index"`
	Phone       *string `gorm:"type:varchar(32);index"`
	ClientToken string  `gorm:"column:client_token;type:varchar(64);not null;uniqueIndex"`
	IsAdmin     bool    `gorm:"column:is_admin;not null;default:false"`

	CityID                  *string    `gorm:"column:city_id;type:varchar(64)"`
	City                    *string    `gorm:"column:city;type:varchar(100)"`
	AreaID                  *string    `gorm:"column:area_id;type:varchar(64)"`
	Area                    *string    `gorm:"column:area;type:varchar(120)"`
	SubAreaID               *string    `gorm:"column:sub_area_id;type:varchar(64)"`
	SubArea                 *string    `gorm:"column:sub_area;type:varchar(120)"`
	Latitude                *float64   `gorm:"column:latitude"`
	Longitude               *float64   `gorm:"column:longitude"`
	Address                 *string    `gorm:"column:address;type:text"`
	Locality                *string    `gorm:"column:locality;type:varchar(150)"`
	State                   *string    `gorm:"column:state;type:varchar(100)"`
	Pincode                 *string    `gorm:"column:pincode;type:varchar(12)"`
	LocationDetectionMethod *string    `gorm:"column:location_detection_method;type:varchar(16)"`
	LocationUpdatedAt       *time.Time `gorm:"column:location_updated_at"`
}

// TableName specifies the table name for the Profile model.
func (Profile) TableName() string {
	return "profiles"
}

// HasLocation reports whether the profile carries usable coordinates.
func (p *Profile) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Role maps the admin flag onto the role names used by the auth middleware.
func (p *Profile) Role() string {
	if p.IsAdmin {
		return common.RoleAdmin
	}
	return common.RoleUser
}

// --- DTOs ---

// ProfileResponse is the public view of a profile. The client token is never echoed.
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	City      *string   `json:"city,omitempty"`
	Area      *string   `json:"area,omitempty"`
	SubArea   *string   `json:"sub_area,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToProfileResponse converts a Profile model to a ProfileResponse DTO.
func ToProfileResponse(p *Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		IsAdmin:   p.IsAdmin,
		City:      p.City,
		Area:      p.Area,
		SubArea:   p.SubArea,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		CreatedAt: p.CreatedAt,
	}
}

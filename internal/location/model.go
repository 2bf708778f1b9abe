package location

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"localfelo_backend/internal/common"
	"localfelo_backend/internal/profile"
)

// DetectionMethod records how a location was chosen.
type DetectionMethod string

const (
	DetectionAuto     DetectionMethod = "auto"
	DetectionSearch   DetectionMethod = "search"
	DetectionManual   DetectionMethod = "manual"
	DetectionDropdown DetectionMethod = "dropdown"
)

// Valid reports whether m is one of the known methods.
func (m DetectionMethod) Valid() bool {
	switch m {
	case DetectionAuto, DetectionSearch, DetectionManual, DetectionDropdown:
		return true
	}
	return false
}

var (
	ErrCoordinatesMissing = common.NewAPIError(http.StatusUnprocessableEntity, "COORDINATES_MISSING", "Could not determine coordinates for the selected area.")
	ErrLocationSaveFailed = common.NewAPIError(http.StatusBadGateway, "LOCATION_SAVE_FAILED", "Failed to save location. Please try again.")
)

// UserLocation is the resolved geographic context of a client. Its JSON form is the exact value
// the browser app keeps under the guest location keys.
// Latitude and Longitude always come from the area, never the sub-area.
type UserLocation struct {
	CityID          *string         `json:"cityId"`
	City            string          `json:"city"`
	AreaID          *string         `json:"areaId"`
	Area            string          `json:"area"`
	SubAreaID       *string         `json:"subAreaId,omitempty"`
	SubArea         string          `json:"subArea,omitempty"`
	Latitude        float64         `json:"latitude"`
	Longitude       float64         `json:"longitude"`
	Address         string          `json:"address,omitempty"`
	Locality        string          `json:"locality,omitempty"`
	State           string          `json:"state,omitempty"`
	Pincode         string          `json:"pincode,omitempty"`
	DetectionMethod DetectionMethod `json:"detectionMethod"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// UpdateRequest is an explicit location change. Coordinates are optional when AreaID is set.
type UpdateRequest struct {
	CityID          *string         `json:"cityId" binding:"omitempty,max=64"`
	City            string          `json:"city" binding:"required,max=100"`
	AreaID          *string         `json:"areaId" binding:"omitempty,max=64"`
	Area            string          `json:"area" binding:"max=120"`
	SubAreaID       *string         `json:"subAreaId" binding:"omitempty,max=64"`
	SubArea         string          `json:"subArea" binding:"max=120"`
	Latitude        *float64        `json:"latitude" binding:"omitempty,latitude"`
	Longitude       *float64        `json:"longitude" binding:"omitempty,longitude"`
	Address         string          `json:"address" binding:"max=500"`
	Locality        string          `json:"locality" binding:"max=150"`
	State           string          `json:"state" binding:"max=100"`
	Pincode         string          `json:"pincode" binding:"max=12"`
	DetectionMethod DetectionMethod `json:"detectionMethod" binding:"omitempty,oneof=auto search manual dropdown"`
}

// RequestFrom turns a resolved location back into an update, keeping its coordinates.
func RequestFrom(loc *UserLocation) UpdateRequest {
	lat, lon := loc.Latitude, loc.Longitude
	return UpdateRequest{
		CityID:          loc.CityID,
		City:            loc.City,
		AreaID:          loc.AreaID,
		Area:            loc.Area,
		SubAreaID:       loc.SubAreaID,
		SubArea:         loc.SubArea,
		Latitude:        &lat,
		Longitude:       &lon,
		Address:         loc.Address,
		Locality:        loc.Locality,
		State:           loc.State,
		Pincode:         loc.Pincode,
		DetectionMethod: loc.DetectionMethod,
	}
}

func decode(raw string) (*UserLocation, error) {
	var loc UserLocation
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		return nil, fmt.Errorf("decode stored location: %w", err)
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return nil, fmt.Errorf("stored location has no coordinates")
	}
	return &loc, nil
}

func encode(loc *UserLocation) (string, error) {
	b, err := json.Marshal(loc)
	if err != nil {
		return "", fmt.Errorf("encode location: %w", err)
	}
	return string(b), nil
}

// FromProfile reads the location columns of p. It returns nil when p has no coordinates.
func FromProfile(p *profile.Profile) *UserLocation {
	if p == nil || !p.HasLocation() {
		return nil
	}
	loc := &UserLocation{
		CityID:          p.CityID,
		City:            deref(p.City),
		AreaID:          p.AreaID,
		Area:            deref(p.Area),
		SubAreaID:       p.SubAreaID,
		SubArea:         deref(p.SubArea),
		Latitude:        *p.Latitude,
		Longitude:       *p.Longitude,
		Address:         deref(p.Address),
		Locality:        deref(p.Locality),
		State:           deref(p.State),
		Pincode:         deref(p.Pincode),
		DetectionMethod: DetectionManual,
	}
	if p.LocationDetectionMethod != nil && DetectionMethod(*p.LocationDetectionMethod).Valid() {
		loc.DetectionMethod = DetectionMethod(*p.LocationDetectionMethod)
	}
	if p.LocationUpdatedAt != nil {
		loc.UpdatedAt = *p.LocationUpdatedAt
	}
	return loc
}

// ApplyToProfile copies loc onto the location columns of p, for profiles about to be created.
func ApplyToProfile(p *profile.Profile, loc *UserLocation) {
	lat, lon := loc.Latitude, loc.Longitude
	method := string(loc.DetectionMethod)
	updated := loc.UpdatedAt
	p.CityID = loc.CityID
	p.City = optional(loc.City)
	p.AreaID = loc.AreaID
	p.Area = optional(loc.Area)
	p.SubAreaID = loc.SubAreaID
	p.SubArea = optional(loc.SubArea)
	p.Latitude = &lat
	p.Longitude = &lon
	p.Address = optional(loc.Address)
	p.Locality = optional(loc.Locality)
	p.State = optional(loc.State)
	p.Pincode = optional(loc.Pincode)
	p.LocationDetectionMethod = &method
	p.LocationUpdatedAt = &updated
}

// Columns returns the profile column values for loc. A nil loc nulls every column.
func Columns(loc *UserLocation) map[string]interface{} {
	if loc == nil {
		return map[string]interface{}{
			"city_id": nil, "city": nil, "area_id": nil, "area": nil,
			"sub_area_id": nil, "sub_area": nil, "latitude": nil, "longitude": nil,
			"address": nil, "locality": nil, "state": nil, "pincode": nil,
			"location_detection_method": nil, "location_updated_at": nil,
		}
	}
	return map[string]interface{}{
		"city_id":                   loc.CityID,
		"city":                      optional(loc.City),
		"area_id":                   loc.AreaID,
		"area":                      optional(loc.Area),
		"sub_area_id":               loc.SubAreaID,
		"sub_area":                  optional(loc.SubArea),
		"latitude":                  loc.Latitude,
		"longitude":                 loc.Longitude,
		"address":                   optional(loc.Address),
		"locality":                  optional(loc.Locality),
		"state":                     optional(loc.State),
		"pincode":                   optional(loc.Pincode),
		"location_detection_method": string(loc.DetectionMethod),
		"location_updated_at":       loc.UpdatedAt,
	}
}

func withoutSubArea(fields map[string]interface{}) map[string]interface{} {
	reduced := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		reduced[k] = v
	}
	for _, col := range profile.SubAreaColumns {
		delete(reduced, col)
	}
	return reduced
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

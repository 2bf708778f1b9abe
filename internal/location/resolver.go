// Package location resolves and persists the user's geographic context.
package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"localfelo_backend/internal/area"
	"localfelo_backend/internal/clientstore"
	"localfelo_backend/internal/common"
	"localfelo_backend/internal/config"
	"localfelo_backend/internal/platform/database"
	"localfelo_backend/internal/platform/metrics"
	"localfelo_backend/internal/profile"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfileStore is the part of the profile repository the resolver needs.
type ProfileStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
}

// AreaLookup resolves area coordinates and nearest areas.
type AreaLookup interface {
	Coordinates(ctx context.Context, areaID string) (area.Coordinates, bool, error)
	Nearest(ctx context.Context, lat, lon float64) (*area.Area, float64, error)
}

// Defaults is the place every unresolved client falls back to.
type Defaults struct {
	CityID    string
	City      string
	Area      string
	Latitude  float64
	Longitude float64
}

// DefaultsFromConfig builds Defaults from the DEFAULT_* settings.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	return Defaults{
		CityID:    strings.TrimSpace(cfg.DefaultCityID),
		City:      cfg.DefaultCity,
		Area:      cfg.DefaultArea,
		Latitude:  cfg.DefaultLatitude,
		Longitude: cfg.DefaultLongitude,
	}
}

// Resolver reconciles the profile record, the guest value and explicit picks into one location.
type Resolver struct {
	store    clientstore.Store
	profiles ProfileStore
	areas    AreaLookup
	defaults Defaults
	mirror   bool
	logger   *zap.Logger
	now      func() time.Time
}

// NewResolver creates a Resolver. With mirror set guest writes also go to the legacy key.
func NewResolver(store clientstore.Store, profiles ProfileStore, areas AreaLookup, defaults Defaults, mirror bool, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:    store,
		profiles: profiles,
		areas:    areas,
		defaults: defaults,
		mirror:   mirror,
		logger:   logger.Named("location"),
		now:      time.Now,
	}
}

// NewResolverFromConfig is the injector-facing constructor.
func NewResolverFromConfig(store clientstore.Store, profiles profile.Repository, areas area.Service, cfg *config.Config, logger *zap.Logger) *Resolver {
	return NewResolver(store, profiles, areas, DefaultsFromConfig(cfg), cfg.LocationMirrorLegacyKey, logger)
}

// Default returns a fresh copy of the fallback location.
func (r *Resolver) Default() *UserLocation {
	loc := &UserLocation{
		City:            r.defaults.City,
		Area:            r.defaults.Area,
		Latitude:        r.defaults.Latitude,
		Longitude:       r.defaults.Longitude,
		DetectionMethod: DetectionManual,
	}
	if r.defaults.CityID != "" {
		id := r.defaults.CityID
		loc.CityID = &id
	}
	return loc
}

// Resolve never returns nil. Signed-in users read their profile first, then the guest value,
// then the default. Backend failures degrade to the next source.
func (r *Resolver) Resolve(ctx context.Context, clientID string, userID *uuid.UUID) *UserLocation {
	if userID != nil {
		p, err := r.profiles.FindByID(ctx, *userID)
		switch {
		case err != nil:
			r.logger.Warn("Profile lookup failed, using cached location", zap.Error(err), zap.String("userID", userID.String()))
		case p.HasLocation():
			return FromProfile(p)
		}
	}
	if loc, ok := r.GuestLocation(ctx, clientID); ok {
		return loc
	}
	return r.Default()
}

// GuestLocation reads the locally persisted guest value.
func (r *Resolver) GuestLocation(ctx context.Context, clientID string) (*UserLocation, bool) {
	raw, ok, err := r.store.Get(ctx, clientID, clientstore.KeyGuestLocation)
	if err != nil {
		r.logger.Warn("Reading guest location failed", zap.Error(err), zap.String("clientID", clientID))
		return nil, false
	}
	if !ok || raw == "" {
		return nil, false
	}
	loc, err := decode(raw)
	if err != nil {
		r.logger.Warn("Ignoring unreadable guest location", zap.Error(err), zap.String("clientID", clientID))
		return nil, false
	}
	return loc, true
}

// Update applies an explicit location change and returns the stored result.
func (r *Resolver) Update(ctx context.Context, clientID string, userID *uuid.UUID, req UpdateRequest) (*UserLocation, error) {
	audience := "guest"
	if userID != nil {
		audience = "user"
	}

	loc, err := r.build(ctx, req)
	if err != nil {
		metrics.LocationUpdates.WithLabelValues(audience, "coordinates_missing").Inc()
		return nil, err
	}

	if userID == nil {
		if err := r.writeGuest(ctx, clientID, loc); err != nil {
			r.logger.Error("Saving guest location failed", zap.Error(err), zap.String("clientID", clientID))
			metrics.LocationUpdates.WithLabelValues(audience, "failed").Inc()
			return nil, ErrLocationSaveFailed.WithDetails(err.Error())
		}
		metrics.LocationUpdates.WithLabelValues(audience, "ok").Inc()
		return loc, nil
	}

	dropped, err := r.writeProfile(ctx, *userID, Columns(loc))
	if err != nil {
		r.logger.Error("Saving profile location failed", zap.Error(err), zap.String("userID", userID.String()))
		metrics.LocationUpdates.WithLabelValues(audience, "failed").Inc()
		return nil, ErrLocationSaveFailed.WithDetails(err.Error())
	}
	if dropped {
		loc.SubAreaID = nil
		loc.SubArea = ""
	}
	metrics.LocationUpdates.WithLabelValues(audience, "ok").Inc()
	return loc, nil
}

// Clear nulls the location locally and on the profile. Clearing an empty location is a no-op success.
func (r *Resolver) Clear(ctx context.Context, clientID string, userID *uuid.UUID) error {
	if err := r.ClearGuest(ctx, clientID); err != nil {
		r.logger.Error("Clearing guest location failed", zap.Error(err), zap.String("clientID", clientID))
		return ErrLocationSaveFailed.WithDetails(err.Error())
	}
	if userID == nil {
		return nil
	}
	if _, err := r.writeProfile(ctx, *userID, Columns(nil)); err != nil && !errors.Is(err, common.ErrNotFound) {
		r.logger.Error("Clearing profile location failed", zap.Error(err), zap.String("userID", userID.String()))
		return ErrLocationSaveFailed.WithDetails(err.Error())
	}
	return nil
}

// ClearGuest removes both guest keys and signals the change.
func (r *Resolver) ClearGuest(ctx context.Context, clientID string) error {
	if err := r.store.Remove(ctx, clientID, clientstore.KeyGuestLocation, clientstore.KeyLegacyGuestLocation); err != nil {
		return err
	}
	return r.bumpVersion(ctx, clientID)
}

// Detect maps a device position to the nearest known area. The result carries the area's
// coordinates, not the device's.
func (r *Resolver) Detect(ctx context.Context, lat, lon float64) (*UserLocation, error) {
	a, _, err := r.areas.Nearest(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	areaID, cityID := a.ID, a.CityID
	loc := &UserLocation{
		CityID:          &cityID,
		AreaID:          &areaID,
		Area:            a.Name,
		Latitude:        a.Latitude,
		Longitude:       a.Longitude,
		Pincode:         a.Pincode,
		DetectionMethod: DetectionAuto,
		UpdatedAt:       r.now().UTC(),
	}
	if a.City != nil {
		loc.City = a.City.Name
		loc.State = a.City.State
	}
	return loc, nil
}

// DistanceKM measures from the area-level coordinates of from. A nil from measures from the default.
func (r *Resolver) DistanceKM(from *UserLocation, lat, lon float64) float64 {
	if from == nil {
		from = r.Default()
	}
	return area.DistanceKM(from.Latitude, from.Longitude, lat, lon)
}

func (r *Resolver) build(ctx context.Context, req UpdateRequest) (*UserLocation, error) {
	loc := &UserLocation{
		CityID:          req.CityID,
		City:            req.City,
		AreaID:          req.AreaID,
		Area:            req.Area,
		SubAreaID:       req.SubAreaID,
		SubArea:         req.SubArea,
		Address:         req.Address,
		Locality:        req.Locality,
		State:           req.State,
		Pincode:         req.Pincode,
		DetectionMethod: req.DetectionMethod,
		UpdatedAt:       r.now().UTC(),
	}
	if !loc.DetectionMethod.Valid() {
		loc.DetectionMethod = DetectionManual
	}

	if req.Latitude != nil && req.Longitude != nil {
		loc.Latitude, loc.Longitude = *req.Latitude, *req.Longitude
		return loc, nil
	}
	if req.AreaID != nil && *req.AreaID != "" {
		c, ok, err := r.areas.Coordinates(ctx, *req.AreaID)
		if err != nil {
			r.logger.Warn("Area coordinate lookup failed", zap.Error(err), zap.String("areaID", *req.AreaID))
		}
		if ok {
			loc.Latitude, loc.Longitude = c.Latitude, c.Longitude
			return loc, nil
		}
	}
	return nil, ErrCoordinatesMissing
}

func (r *Resolver) writeGuest(ctx context.Context, clientID string, loc *UserLocation) error {
	raw, err := encode(loc)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, clientID, clientstore.KeyGuestLocation, raw); err != nil {
		return err
	}
	if r.mirror {
		if err := r.store.Set(ctx, clientID, clientstore.KeyLegacyGuestLocation, raw); err != nil {
			return err
		}
	}
	return r.bumpVersion(ctx, clientID)
}

func (r *Resolver) bumpVersion(ctx context.Context, clientID string) error {
	return r.store.Set(ctx, clientID, clientstore.KeyLocationVersion, strconv.FormatInt(r.now().UnixMilli(), 10))
}

// writeProfile writes fields, retrying once without the sub-area columns when the table lacks them.
// It reports whether those columns were dropped.
func (r *Resolver) writeProfile(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) (bool, error) {
	err := r.profiles.UpdateFields(ctx, userID, fields)
	if err == nil {
		return false, nil
	}
	if !database.IsMissingColumn(err) {
		return false, err
	}
	r.logger.Info("Profile table lacks sub-area columns, retrying without them", zap.String("userID", userID.String()))
	metrics.SchemaDriftRetries.WithLabelValues("profiles").Inc()
	if err := r.profiles.UpdateFields(ctx, userID, withoutSubArea(fields)); err != nil {
		return true, fmt.Errorf("retry without sub-area: %w", err)
	}
	return true, nil
}

// IsCoordinatesMissing reports whether err is the missing-coordinates condition.
func IsCoordinatesMissing(err error) bool {
	return errors.Is(err, ErrCoordinatesMissing)
}

// ToastFor maps an update error to the message the client shows.
func ToastFor(err error) common.Toast {
	if apiErr, ok := common.IsAPIError(err); ok {
		return common.ErrorToast(apiErr.Message)
	}
	return common.ErrorToast(ErrLocationSaveFailed.Message)
}

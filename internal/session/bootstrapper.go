// Package session establishes who a client is, backend first, then the locally stored pair.
package session

import (
	"context"
	"errors"
	"fmt"

	"localfelo_backend/internal/clientstore"
	"localfelo_backend/internal/common"
	"localfelo_backend/internal/location"
	"localfelo_backend/internal/platform/crypto"
	"localfelo_backend/internal/platform/database"
	"localfelo_backend/internal/platform/metrics"
	"localfelo_backend/internal/profile"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProfileStore is the part of the profile repository the bootstrapper needs.
type ProfileStore interface {
	Create(ctx context.Context, p *profile.Profile, omit ...string) error
	FindByAuthUserID(ctx context.Context, authUserID string) (*profile.Profile, error)
	FindByClientToken(ctx context.Context, token string) (*profile.Profile, error)
}

// GuestLocations is the part of the location resolver used to migrate guest state.
type GuestLocations interface {
	GuestLocation(ctx context.Context, clientID string) (*location.UserLocation, bool)
	Update(ctx context.Context, clientID string, userID *uuid.UUID, req location.UpdateRequest) (*location.UserLocation, error)
	ClearGuest(ctx context.Context, clientID string) error
}

// Bootstrapper resolves sessions.
type Bootstrapper struct {
	auth      AuthProvider
	profiles  ProfileStore
	locations GuestLocations
	store     clientstore.Store
	logger    *zap.Logger
	newToken  func() (string, error)
}

// NewBootstrapper creates a Bootstrapper. auth may be nil when no backend auth is configured.
func NewBootstrapper(auth AuthProvider, profiles ProfileStore, locations GuestLocations, store clientstore.Store, logger *zap.Logger) *Bootstrapper {
	return &Bootstrapper{
		auth:      auth,
		profiles:  profiles,
		locations: locations,
		store:     store,
		logger:    logger.Named("session"),
		newToken:  crypto.GenerateClientToken,
	}
}

// NewBootstrapperFromDeps is the injector-facing constructor.
func NewBootstrapperFromDeps(auth AuthProvider, profiles profile.Repository, locations *location.Resolver, store clientstore.Store, logger *zap.Logger) *Bootstrapper {
	return NewBootstrapper(auth, profiles, locations, store, logger)
}

// Bootstrap returns the client's session, or nil for a guest. A backend session whose profile
// cannot be synced leaves the client a guest; the local pair is only read when there is no
// backend session.
func (b *Bootstrapper) Bootstrap(ctx context.Context, clientID, credential string) *Session {
	if b.auth != nil && credential != "" {
		ident, err := b.auth.CurrentSession(ctx, credential)
		if err != nil {
			b.logger.Warn("Backend session check failed", zap.Error(err), zap.String("clientID", clientID))
		}
		if ident != nil {
			s, err := b.syncProfile(ctx, clientID, ident)
			if err != nil {
				b.logger.Error("Profile sync failed, continuing as guest", zap.Error(err), zap.String("uid", ident.UID))
				metrics.SessionBootstraps.WithLabelValues("guest").Inc()
				return nil
			}
			b.persist(ctx, clientID, s)
			metrics.SessionBootstraps.WithLabelValues(string(SourceBackend)).Inc()
			return s
		}
	}

	if s := b.local(ctx, clientID); s != nil {
		metrics.SessionBootstraps.WithLabelValues(string(SourceLocal)).Inc()
		return s
	}
	metrics.SessionBootstraps.WithLabelValues("guest").Inc()
	return nil
}

// Logout signs out of the backend when the session came from it and clears the local pair.
func (b *Bootstrapper) Logout(ctx context.Context, clientID string, s *Session) error {
	if s != nil && s.Source == SourceBackend && s.AuthUserID != "" && b.auth != nil {
		if err := b.auth.SignOut(ctx, s.AuthUserID); err != nil {
			b.logger.Warn("Backend sign-out failed", zap.Error(err), zap.String("uid", s.AuthUserID))
		}
	}
	if err := b.store.Remove(ctx, clientID, clientstore.KeyUser, clientstore.KeyToken); err != nil {
		return fmt.Errorf("clear local session: %w", err)
	}
	return nil
}

func (b *Bootstrapper) syncProfile(ctx context.Context, clientID string, ident *Identity) (*Session, error) {
	guest, hasGuest := b.locations.GuestLocation(ctx, clientID)

	p, err := b.profiles.FindByAuthUserID(ctx, ident.UID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		if p, err = b.createProfile(ctx, ident, guest); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("fetch profile: %w", err)
	case hasGuest && !p.HasLocation():
		if _, err := b.locations.Update(ctx, clientID, &p.ID, location.RequestFrom(guest)); err != nil {
			b.logger.Warn("Merging guest location failed, keeping it cached", zap.Error(err), zap.String("clientID", clientID))
			hasGuest = false
		}
	}

	if hasGuest {
		if err := b.locations.ClearGuest(ctx, clientID); err != nil {
			b.logger.Warn("Clearing guest location failed", zap.Error(err), zap.String("clientID", clientID))
		}
	}

	return &Session{
		User:       userFromProfile(p),
		Token:      p.ClientToken,
		IsAdmin:    p.IsAdmin,
		Source:     SourceBackend,
		AuthUserID: ident.UID,
	}, nil
}

func (b *Bootstrapper) createProfile(ctx context.Context, ident *Identity, guest *location.UserLocation) (*profile.Profile, error) {
	token, err := b.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate client token: %w", err)
	}
	uid := ident.UID
	p := &profile.Profile{AuthUserID: &uid, Name: ident.Name, ClientToken: token}
	if ident.Email != "" {
		email := ident.Email
		p.Email = &email
	}
	if ident.Phone != "" {
		phone := ident.Phone
		p.Phone = &phone
	}
	if guest != nil {
		location.ApplyToProfile(p, guest)
	}

	err = b.profiles.Create(ctx, p)
	if err != nil && database.IsMissingColumn(err) {
		b.logger.Info("Profile table lacks sub-area columns, creating without them", zap.String("uid", uid))
		metrics.SchemaDriftRetries.WithLabelValues("profiles").Inc()
		p.SubAreaID, p.SubArea = nil, nil
		err = b.profiles.Create(ctx, p, profile.SubAreaColumns...)
	}
	if errors.Is(err, common.ErrConflict) {
		// Created concurrently by another request for the same user.
		return b.profiles.FindByAuthUserID(ctx, uid)
	}
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	b.logger.Info("Created profile", zap.String("uid", uid), zap.String("profileID", p.ID.String()))
	return p, nil
}

// local reads the persisted token+user pair. Admin rights come only from the matching profile.
func (b *Bootstrapper) local(ctx context.Context, clientID string) *Session {
	var (
		rawUser, token  string
		okUser, okToken bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rawUser, okUser, err = b.store.Get(gctx, clientID, clientstore.KeyUser)
		return err
	})
	g.Go(func() (err error) {
		token, okToken, err = b.store.Get(gctx, clientID, clientstore.KeyToken)
		return err
	})
	if err := g.Wait(); err != nil {
		b.logger.Warn("Reading stored session failed", zap.Error(err), zap.String("clientID", clientID))
		return nil
	}
	if !okUser || !okToken || token == "" {
		return nil
	}
	u, err := decodeUser(rawUser)
	if err != nil {
		b.logger.Warn("Ignoring unreadable stored user", zap.Error(err), zap.String("clientID", clientID))
		return nil
	}

	s := &Session{User: u, Token: token, Source: SourceLocal}
	p, err := b.profiles.FindByClientToken(ctx, token)
	switch {
	case errors.Is(err, common.ErrNotFound), err == nil && p.ID != u.ID:
		b.logger.Info("Stored session matches no profile, ignoring it", zap.String("clientID", clientID))
		return nil
	case err != nil:
		b.logger.Warn("Profile lookup for stored token failed", zap.Error(err))
	default:
		s.IsAdmin = p.IsAdmin
		if p.AuthUserID != nil {
			s.AuthUserID = *p.AuthUserID
		}
	}
	return s
}

func (b *Bootstrapper) persist(ctx context.Context, clientID string, s *Session) {
	raw, err := encodeUser(s.User)
	if err == nil {
		err = b.store.Set(ctx, clientID, clientstore.KeyUser, raw)
	}
	if err == nil {
		err = b.store.Set(ctx, clientID, clientstore.KeyToken, s.Token)
	}
	if err != nil {
		b.logger.Warn("Persisting session locally failed", zap.Error(err), zap.String("clientID", clientID))
	}
}

// File: internal/listing/service.go
package listing

import (
	"context"
	"errors"
	"time"

	"localfelo_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines listing lookups used by deep links and the expiry job.
type Service interface {
	GetListingByID(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*Listing, error)
	// Exists reports whether id names a listing a deep link may open.
	Exists(ctx context.Context, id string) (bool, error)
	ExpireListings(ctx context.Context) (int, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new listing service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger.Named("listing"), now: time.Now}
}

func (s *service) GetListingByID(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.Visible() && (viewerID == nil || *viewerID != l.OwnerID) {
		return nil, common.ErrNotFound.WithDetails("Listing not found.")
	}
	return l, nil
}

func (s *service) Exists(ctx context.Context, id string) (bool, error) {
	listingID, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	l, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return l.Status != StatusAdminRemoved, nil
}

// ExpireListings finds and marks overdue listings as expired.
func (s *service) ExpireListings(ctx context.Context) (int, error) {
	expired, err := s.repo.FindExpiredListings(ctx, s.now())
	if err != nil {
		s.logger.Error("Failed to find expired listings", zap.Error(err))
		return 0, err
	}
	count := 0
	for _, l := range expired {
		if err := s.repo.UpdateStatus(ctx, l.ID, StatusExpired); err != nil {
			s.logger.Error("Failed to update listing to expired", zap.Error(err), zap.String("listingID", l.ID.String()))
			continue
		}
		count++
	}
	s.logger.Info("Listing expiry completed", zap.Int("expired_count", count), zap.Int("found_to_expire", len(expired)))
	return count, nil
}

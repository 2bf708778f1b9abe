package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"localfelo_backend/internal/common"
	"localfelo_backend/internal/platform/database/dbtest"
)

// MockListingRepository is a mock type for listing.Repository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *Listing) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Listing), args.Error(1)
}

func (m *MockListingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status ListingStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockListingRepository) FindExpiredListings(ctx context.Context, now time.Time) ([]Listing, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Listing), args.Error(1)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	repo := new(MockListingRepository)
	svc := NewService(repo, zap.NewNop())

	active := &Listing{Status: StatusActive}
	active.ID = uuid.New()
	removed := &Listing{Status: StatusAdminRemoved}
	removed.ID = uuid.New()
	missing := uuid.New()
	broken := uuid.New()

	repo.On("FindByID", ctx, active.ID).Return(active, nil)
	repo.On("FindByID", ctx, removed.ID).Return(removed, nil)
	repo.On("FindByID", ctx, missing).Return(nil, common.ErrNotFound.WithDetails("Listing not found."))
	repo.On("FindByID", ctx, broken).Return(nil, errors.New("db down"))

	ok, err := svc.Exists(ctx, active.ID.String())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(ctx, removed.ID.String())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Exists(ctx, missing.String())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Exists(ctx, broken.String())
	assert.Error(t, err)

	ok, err = svc.Exists(ctx, "undefined")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetListingByID_HiddenFromOthers(t *testing.T) {
	ctx := context.Background()
	repo := new(MockListingRepository)
	svc := NewService(repo, zap.NewNop())

	owner := uuid.New()
	l := &Listing{OwnerID: owner, Status: StatusExpired}
	l.ID = uuid.New()
	repo.On("FindByID", ctx, l.ID).Return(l, nil)

	_, err := svc.GetListingByID(ctx, l.ID, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err := svc.GetListingByID(ctx, l.ID, &owner)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
}

func TestExpireListings(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t, &Listing{})
	repo := NewGORMRepository(db)
	s := NewService(repo, zap.NewNop()).(*service)

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	overdue := &Listing{OwnerID: uuid.New(), Title: "Cycle", Status: StatusActive, ExpiresAt: &past}
	fresh := &Listing{OwnerID: uuid.New(), Title: "Desk", Status: StatusActive, ExpiresAt: &future}
	open := &Listing{OwnerID: uuid.New(), Title: "Lamp", Status: StatusActive}
	for _, l := range []*Listing{overdue, fresh, open} {
		require.NoError(t, repo.Create(ctx, l))
	}

	n, err := s.ExpireListings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.FindByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
	got, err = repo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
}

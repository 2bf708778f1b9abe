package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"localfelo_backend/internal/area"
	"localfelo_backend/internal/clientstore"
	"localfelo_backend/internal/location"
	"localfelo_backend/internal/platform/database/dbtest"
	"localfelo_backend/internal/profile"
)

const clientID = "client-0001"

// MockAuthProvider is a mock type for AuthProvider
type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) CurrentSession(ctx context.Context, credential string) (*Identity, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockAuthProvider) SignOut(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

type noAreas struct{}

func (noAreas) Coordinates(ctx context.Context, areaID string) (area.Coordinates, bool, error) {
	return area.Coordinates{}, false, nil
}

func (noAreas) Nearest(ctx context.Context, lat, lon float64) (*area.Area, float64, error) {
	return nil, 0, area.ErrNoNearbyArea
}

type bootstrapTestSuite struct {
	boot     *Bootstrapper
	auth     *MockAuthProvider
	store    *clientstore.GORMStore
	profiles profile.Repository
	resolver *location.Resolver
}

func setupBootstrapTestSuite(t *testing.T) *bootstrapTestSuite {
	t.Helper()
	db := dbtest.Open(t, &clientstore.Entry{}, &profile.Profile{})
	return newSuite(t, db)
}

func newSuite(t *testing.T, db *gorm.DB) *bootstrapTestSuite {
	t.Helper()
	store, err := clientstore.NewGORMStore(db, 0, zap.NewNop())
	require.NoError(t, err)
	ts := &bootstrapTestSuite{
		auth:     new(MockAuthProvider),
		store:    store,
		profiles: profile.NewGORMRepository(db),
	}
	ts.resolver = location.NewResolver(store, ts.profiles, noAreas{}, location.Defaults{City: "Pune", Latitude: 18.5204, Longitude: 73.8567}, true, zap.NewNop())
	ts.boot = NewBootstrapper(ts.auth, ts.profiles, ts.resolver, store, zap.NewNop())
	return ts
}

func ptr[T any](v T) *T { return &v }

// failingWrites serves profile reads and fails every profile write.
type failingWrites struct {
	profile.Repository
	err error
}

func (f failingWrites) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return f.err
}

func (ts *bootstrapTestSuite) setGuestPune(t *testing.T) {
	t.Helper()
	_, err := ts.resolver.Update(context.Background(), clientID, nil, location.UpdateRequest{
		City: "Pune", Latitude: ptr(18.52), Longitude: ptr(73.85),
	})
	require.NoError(t, err)
}

func (ts *bootstrapTestSuite) assertGuestKeysGone(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, key := range []string{clientstore.KeyGuestLocation, clientstore.KeyLegacyGuestLocation} {
		_, ok, err := ts.store.Get(ctx, clientID, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestBootstrap_GuestLocationMovesIntoNewProfile(t *testing.T) {
	ctx := context.Background()
	ts := setupBootstrapTestSuite(t)
	ts.setGuestPune(t)
	ts.auth.On("CurrentSession", ctx, "id-token").Return(&Identity{UID: "fb-1", Name: "Asha", Email: "Asha@Example.com"}, nil)

	s := ts.boot.Bootstrap(ctx, clientID, "id-token")
	require.NotNil(t, s)
	assert.Equal(t, SourceBackend, s.Source)
	assert.Len(t, s.Token, 64)

	p, err := ts.profiles.FindByAuthUserID(ctx, "fb-1")
	require.NoError(t, err)
	require.True(t, p.HasLocation())
	assert.Equal(t, "Pune", *p.City)
	assert.Equal(t, 18.52, *p.Latitude)
	assert.Equal(t, 73.85, *p.Longitude)
	assert.Equal(t, "asha@example.com", *p.Email)
	assert.Equal(t, s.Token, p.ClientToken)

	ts.assertGuestKeysGone(t)

	token, ok, err := ts.store.Get(ctx, clientID, clientstore.KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.ClientToken, token)
}

func TestBootstrap_TokenOnlyGeneratedOnCreation(t *testing.T) {
	ctx := context.Background()
	ts := setupBootstrapTestSuite(t)
	ts.auth.On("CurrentSession", ctx, "id-token").Return(&Identity{UID: "fb-1"}, nil)

	first := ts.boot.Bootstrap(ctx, clientID, "id-token")
	second := ts.boot.Bootstrap(ctx, clientID, "id-token")
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestBootstrap_MergesGuestOnlyIntoProfileWithoutLocation(t *testing.T) {
	ctx := context.Background()
	ts := setupBootstrapTestSuite(t)

	uid := "fb-2"
	existing := &profile.Profile{AuthUserID: &uid, ClientToken: "tok-existing", City: ptr("Mumbai"), Latitude: ptr(19.07), Longitude: ptr(72.87)}
	require.NoError(t, ts.profiles.Create(ctx, existing))
	ts.setGuestPune(t)
	ts.auth.On("CurrentSession", ctx, "id-token").Return(&Identity{UID: uid}, nil)

	require.NotNil(t, ts.boot.Bootstrap(ctx, clientID, "id-token"))

	p, err := ts.profiles.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", *p.City)
	ts.assertGuestKeysGone(t)
}

func TestBootstrap_MergesGuestIntoEmptyProfile(t *testing.T) {
	ctx := context.Background()
	ts := setupBootstrapTestSuite(t)

	uid := "fb-3"
	existing := &profile.Profile{AuthUserID: &uid, ClientToken: "tok-empty"}
	require.NoError(t, ts.profiles.Create(ctx, existing))
	ts.setGuestPune(t)
	ts.auth.On("CurrentSession", ctx, "id-token").Return(&Identity{UID: uid}, nil)

	require.NotNil(t, ts.boot.Bootstrap(ctx, clientID, "id-token"))

	p, err := ts.profiles.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	require.True(t, p.HasLocation())
	assert.Equal(t, "Pune", *p.City)
	ts.assertGuestKeysGone(t)
}

func TestBootstrap_FailedGuestMergeKeepsSessionAndCache(t *testing.T) {
	ctx := context.Background()
	ts := setupBootstrapTestSuite(t)
	writes := failingWrites{Repository: ts.profiles, err: errors.New("connection reset")}
	resolver := location.NewResolver(ts.store, writes, noAreas{}, location.Defaults{City: "Pune"}, true, zap.NewNop())
	ts.boot = NewBootstrapper(ts.auth, ts.profiles, resolver, ts.store, zap.NewNop())

	uid := "fb-8"
	existing := &profile.Profile{AuthUserID: &uid, ClientToken: "tok-merge"}
	require.NoError(t, ts.profiles.Create(ctx, existing))
	ts.setGuestPune(t)
	ts.auth.On("CurrentSession", ctx, "id-token").Return(&Identity{UID: uid}, nil)

	s := ts.boot.Bootstrap(ctx, clientID, "id-token")
	require.NotNil(t, s)
	assert.Equal(t, SourceBackend, s.Source)
	assert.Equal(t, existing.ID, s.User.ID)

	for _, key := range []string{clientstore.KeyGuestLocation, clientstore.KeyLegacyGuestLocation} {
		_, ok, err := ts.store.Get(ctx, clientID, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
	guest, ok := ts.resolver.GuestLocation(ctx, clientID)
	require.True(t, ok)
	assert.Equal(t, "Pune", guest.City)
}

func TestBootstrap_CreatesProfileOnDriftedSchema(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t, &clientstore.Entry{})
	dbtest.Exec(t, db, `CREATE TABLE profiles (
		id TEXT PRIMARY KEY, created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL,
		auth_user_id TEXT UNIQUE, name TEXT NOT NULL DEFAULT '', email TEXT, phone TEXT,
		client_token TEXT NOT NULL UNIQUE, is_admin BOOLEAN NOT NULL DEFAULT false,
		city_id TEXT, city TEXT, area_id TEXT, area TEXT, latitude REAL, longitude REAL,
		address TEXT, locality TEXT, state TEXT, pincode TEXT,
		location_detection_method TEXT, location_updated_at DATETIME)`)
	ts := newSuite(t, db)
	ts.setGuestPune(t)
	ts.auth.On("CurrentSession", ctx, "id-token").Return(&Identity{UID: "fb-4"}, nil)

	s := ts.boot.Bootstrap(ctx, clientID, "id-token")
	require.NotNil(t, s)

	var city string
	require.NoError(t, db.Raw("SELECT city FROM profiles WHERE auth_user_id = ?", "fb-4").Scan(&city).Error)
	assert.Equal(t, "Pune", city)
}

func TestBootstrap_FallsBackToLocalPair(t *testing.T) {
	ctx := context.Background()
	ts := setupBootstrapTestSuite(t)
	ts.auth.On("CurrentSession", ctx, "stale").Return(nil, errors.New("token expired"))

	uid := "fb-5"
	p := &profile.Profile{AuthUserID: &uid, Name: "Ravi", ClientToken: "tok-local", IsAdmin: true}
	require.NoError(t, ts.profiles.Create(ctx, p))
	raw, err := encodeUser(userFromProfile(p))
	require.NoError(t, err)
	require.NoError(t, ts.store.Set(ctx, clientID, clientstore.KeyUser, raw))
	require.NoError(t, ts.store.Set(ctx, clientID, clientstore.KeyToken, "tok-local"))

	s := ts.boot.Bootstrap(ctx, clientID, "stale")
	require.NotNil(t, s)
	assert.Equal(t, SourceLocal, s.Source)
	assert.Equal(t, p.ID, s.User.ID)
	assert.True(t, s.IsAdmin)
}

func TestBootstrap_IgnoresLocalPairWithoutProfile(t *testing.T) {
	ctx := context.Background()
	ts := setupBootstrapTestSuite(t)

	raw, err := encodeUser(User{ID: uuid.New(), Name: "Ghost"})
	require.NoError(t, err)
	require.NoError(t, ts.store.Set(ctx, clientID, clientstore.KeyUser, raw))
	require.NoError(t, ts.store.Set(ctx, clientID, clientstore.KeyToken, "tok-unknown"))

	assert.Nil(t, ts.boot.Bootstrap(ctx, clientID, ""))

	other := &profile.Profile{Name: "Meera", ClientToken: "tok-unknown"}
	require.NoError(t, ts.profiles.Create(ctx, other))
	assert.Nil(t, ts.boot.Bootstrap(ctx, clientID, ""), "token belongs to a different user")
}

func TestBootstrap_GuestWithoutAnything(t *testing.T) {
	ctx := context.Background()
	ts := setupBootstrapTestSuite(t)

	assert.Nil(t, ts.boot.Bootstrap(ctx, clientID, ""))

	require.NoError(t, ts.store.Set(ctx, clientID, clientstore.KeyUser, `{"id":"`+uuid.NewString()+`","name":"x"}`))
	assert.Nil(t, ts.boot.Bootstrap(ctx, clientID, ""), "user without token is not a session")
	ts.auth.AssertNotCalled(t, "CurrentSession", mock.Anything, mock.Anything)
}

func TestBootstrap_ProfileFailureLeavesGuest(t *testing.T) {
	ctx := context.Background()
	ts := setupBootstrapTestSuite(t)
	ts.auth.On("CurrentSession", ctx, "id-token").Return(&Identity{UID: "fb-6"}, nil)
	ts.boot.newToken = func() (string, error) { return "", errors.New("entropy exhausted") }

	assert.Nil(t, ts.boot.Bootstrap(ctx, clientID, "id-token"))
}

func TestLogout_ClearsLocalPairAndSignsOut(t *testing.T) {
	ctx := context.Background()
	ts := setupBootstrapTestSuite(t)
	ts.auth.On("CurrentSession", ctx, "id-token").Return(&Identity{UID: "fb-7"}, nil)
	ts.auth.On("SignOut", ctx, "fb-7").Return(nil)

	s := ts.boot.Bootstrap(ctx, clientID, "id-token")
	require.NotNil(t, s)
	require.NoError(t, ts.boot.Logout(ctx, clientID, s))

	for _, key := range []string{clientstore.KeyUser, clientstore.KeyToken} {
		_, ok, err := ts.store.Get(ctx, clientID, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
	ts.auth.AssertExpectations(t)
	assert.Nil(t, ts.boot.Bootstrap(ctx, clientID, ""))
}

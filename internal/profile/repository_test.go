package profile

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localfelo_backend/internal/common"
	"localfelo_backend/internal/platform/database"
	"localfelo_backend/internal/platform/database/dbtest"
)

func strPtr(s string) *string { return &s }

func TestRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGORMRepository(dbtest.Open(t, &Profile{}))

	p := &Profile{AuthUserID: strPtr("fb-1"), Name: "Asha", Email: strPtr("  Asha@Example.com "), ClientToken: "tok-1"}
	require.NoError(t, repo.Create(ctx, p))
	assert.NotEqual(t, uuid.Nil, p.ID)

	byAuth, err := repo.FindByAuthUserID(ctx, "fb-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byAuth.ID)
	assert.Equal(t, "asha@example.com", *byAuth.Email)

	byToken, err := repo.FindByClientToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byToken.ID)

	_, err = repo.FindByClientToken(ctx, "")
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = repo.Create(ctx, &Profile{AuthUserID: strPtr("fb-1"), ClientToken: "tok-2"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestRepository_UpdateFields(t *testing.T) {
	ctx := context.Background()
	repo := NewGORMRepository(dbtest.Open(t, &Profile{}))

	p := &Profile{ClientToken: "tok-1"}
	require.NoError(t, repo.Create(ctx, p))

	lat, lon := 18.52, 73.85
	require.NoError(t, repo.UpdateFields(ctx, p.ID, map[string]interface{}{
		"city": "Pune", "latitude": lat, "longitude": lon,
	}))
	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.HasLocation())
	assert.Equal(t, "Pune", *got.City)

	err = repo.UpdateFields(ctx, uuid.New(), map[string]interface{}{"city": "X"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRepository_DriftedSchemaReportsMissingColumn(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	dbtest.Exec(t, db, `CREATE TABLE profiles (
		id TEXT PRIMARY KEY, created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL,
		auth_user_id TEXT UNIQUE, name TEXT NOT NULL DEFAULT '', email TEXT, phone TEXT,
		client_token TEXT NOT NULL UNIQUE, is_admin BOOLEAN NOT NULL DEFAULT false,
		city_id TEXT, city TEXT, area_id TEXT, area TEXT, latitude REAL, longitude REAL,
		address TEXT, locality TEXT, state TEXT, pincode TEXT,
		location_detection_method TEXT, location_updated_at DATETIME)`)
	repo := NewGORMRepository(db)

	p := &Profile{ClientToken: "tok-1"}
	err := repo.Create(ctx, p)
	require.Error(t, err)
	assert.True(t, database.IsMissingColumn(err))

	require.NoError(t, repo.Create(ctx, p, SubAreaColumns...))

	err = repo.UpdateFields(ctx, p.ID, map[string]interface{}{"sub_area_id": "x", "city": "Pune"})
	require.Error(t, err)
	assert.True(t, database.IsMissingColumn(err))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SubAreaID)
}

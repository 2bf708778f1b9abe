package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localfelo_backend/internal/common"
	"localfelo_backend/internal/platform/database/dbtest"
)

func TestGORMRepository_UnreadLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewGORMRepository(dbtest.Open(t, &Notification{}))
	userID, other := uuid.New(), uuid.New()

	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	older := &Notification{UserID: userID, Message: "older", Type: TypeInfo, CreatedAt: base}
	newer := &Notification{UserID: userID, Message: "newer", Type: TypeTaskAccepted, CreatedAt: base.Add(time.Minute),
		Metadata: map[string]interface{}{"task": "t-1"}}
	foreign := &Notification{UserID: other, Message: "not mine", Type: TypeInfo}
	for _, n := range []*Notification{older, newer, foreign} {
		require.NoError(t, repo.Create(ctx, n))
	}

	list, err := repo.ListUnread(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, "t-1", list[0].Metadata["task"])

	n, err := repo.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, repo.MarkAsRead(ctx, older.ID, userID))
	require.NoError(t, repo.MarkAsRead(ctx, older.ID, userID), "marking twice succeeds")
	assert.ErrorIs(t, repo.MarkAsRead(ctx, foreign.ID, userID), common.ErrNotFound)

	n, err = repo.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.ErrorIs(t, repo.Delete(ctx, foreign.ID, userID), common.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, newer.ID, userID))

	marked, err := repo.MarkAllAsRead(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	items, pagination, err := repo.GetByUserID(ctx, userID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(1), pagination.TotalItems)
}

func TestGORMRepository_BatchAndRetention(t *testing.T) {
	ctx := context.Background()
	repo := NewGORMRepository(dbtest.Open(t, &Notification{}))

	old := time.Now().UTC().AddDate(0, 0, -120)
	batch := []Notification{
		{UserID: uuid.New(), Message: "a", Type: TypeBroadcast, IsRead: true, CreatedAt: old},
		{UserID: uuid.New(), Message: "b", Type: TypeBroadcast, CreatedAt: old},
		{UserID: uuid.New(), Message: "c", Type: TypeBroadcast, IsRead: true},
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))
	require.NoError(t, repo.CreateBatch(ctx, nil))

	deleted, err := repo.DeleteReadOlderThan(ctx, time.Now().UTC().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "only read notifications past the cutoff go")
}

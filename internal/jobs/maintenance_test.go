package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"localfelo_backend/internal/config"
)

type MockCleanup struct {
	mock.Mock
}

func (m *MockCleanup) EvictIdle(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCleanup) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCleanup) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCleanup) ExpireListings(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		MaintenanceJobSchedule:    "@hourly",
		ClientStorageTTLDays:      30,
		NotificationRetentionDays: 90,
	}
}

func TestMaintenanceJob_RunOnce(t *testing.T) {
	m := new(MockCleanup)
	job := NewMaintenanceJob(m, m, m, m, zap.NewNop(), testConfig())
	now := time.Date(2025, 3, 10, 4, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	m.On("EvictIdle", mock.Anything).Return(3, nil)
	m.On("DeleteStale", mock.Anything, now.Add(-30*24*time.Hour)).Return(int64(12), nil)
	m.On("PurgeRead", mock.Anything, 90*24*time.Hour).Return(int64(40), nil)
	m.On("ExpireListings", mock.Anything).Return(2, nil)

	r := job.RunOnce(context.Background())
	assert.Equal(t, Report{StatesEvicted: 3, StorageDeleted: 12, NotificationsPurged: 40, ListingsExpired: 2}, r)
	m.AssertExpectations(t)
}

func TestMaintenanceJob_FailingStepDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := new(MockCleanup)
	job := NewMaintenanceJob(m, nil, m, m, zap.New(core), testConfig())

	m.On("EvictIdle", mock.Anything).Return(0, errors.New("boom"))
	m.On("PurgeRead", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))
	m.On("ExpireListings", mock.Anything).Return(1, nil)

	r := job.RunOnce(context.Background())
	assert.Equal(t, 1, r.ListingsExpired)
	m.AssertExpectations(t)
	m.AssertNotCalled(t, "DeleteStale", mock.Anything, mock.Anything)
	assert.Equal(t, 2, logs.FilterMessage("Maintenance step failed").Len())
}

func TestMaintenanceJob_ZeroRetentionSkipsPurges(t *testing.T) {
	m := new(MockCleanup)
	cfg := testConfig()
	cfg.ClientStorageTTLDays = 0
	cfg.NotificationRetentionDays = 0
	job := NewMaintenanceJob(m, m, m, nil, zap.NewNop(), cfg)

	m.On("EvictIdle", mock.Anything).Return(0, nil)
	job.RunOnce(context.Background())
	m.AssertNotCalled(t, "DeleteStale", mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "PurgeRead", mock.Anything, mock.Anything)
}

func TestMaintenanceJob_Schedule(t *testing.T) {
	cfg := testConfig()
	cfg.MaintenanceJobSchedule = "not a schedule"
	job := NewMaintenanceJob(nil, nil, nil, nil, zap.NewNop(), cfg)
	assert.Error(t, job.SetupAndStart())

	cfg.MaintenanceJobSchedule = ""
	job = NewMaintenanceJob(nil, nil, nil, nil, zap.NewNop(), cfg)
	require.NoError(t, job.SetupAndStart())
	job.Stop()

	job = NewMaintenanceJob(nil, nil, nil, nil, zap.NewNop(), testConfig())
	require.NoError(t, job.SetupAndStart())
	assert.Len(t, job.cronScheduler.Entries(), 1)
	job.Stop()
}

func TestCronLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewCronLogger(zap.New(core))

	l.Info("schedule", "entry", 1, "dangling")
	l.Error(errors.New("panic"), "job failed", "entry", 2)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "MISSING_VALUE", entries[0].ContextMap()["dangling"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "panic", entries[1].ContextMap()["error"])
}

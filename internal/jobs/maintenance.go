// File: internal/jobs/maintenance.go
package jobs

import (
	"context"
	"time"

	"localfelo_backend/internal/appstate"
	"localfelo_backend/internal/clientstore"
	"localfelo_backend/internal/config"
	"localfelo_backend/internal/listing"
	"localfelo_backend/internal/notification"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// IdleEvictor drops in-memory client states nobody has touched lately.
type IdleEvictor interface {
	EvictIdle(ctx context.Context) (int, error)
}

// StaleStorage drops persisted client values nobody has written lately.
type StaleStorage interface {
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
}

// ReadPurger deletes read notifications past their retention.
type ReadPurger interface {
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ListingExpirer marks overdue listings as expired.
type ListingExpirer interface {
	ExpireListings(ctx context.Context) (int, error)
}

// MaintenanceJob periodically cleans up client state, storage, notifications and listings.
type MaintenanceJob struct {
	states        IdleEvictor
	storage       StaleStorage
	notifications ReadPurger
	listings      ListingExpirer

	schedule         string
	storageTTL       time.Duration
	notificationsTTL time.Duration

	logger        *zap.Logger
	cronScheduler *cron.Cron
	now           func() time.Time
}

// NewMaintenanceJob creates a MaintenanceJob. Any dependency may be nil to skip its step.
func NewMaintenanceJob(
	states IdleEvictor,
	storage StaleStorage,
	notifications ReadPurger,
	listings ListingExpirer,
	logger *zap.Logger,
	cfg *config.Config,
) *MaintenanceJob {
	scheduler := cron.New(
		cron.WithLogger(NewCronLogger(logger.Named("cron"))),
		cron.WithChain(cron.SkipIfStillRunning(NewCronLogger(logger.Named("cron")))),
	)
	return &MaintenanceJob{
		states:           states,
		storage:          storage,
		notifications:    notifications,
		listings:         listings,
		schedule:         cfg.MaintenanceJobSchedule,
		storageTTL:       days(cfg.ClientStorageTTLDays),
		notificationsTTL: days(cfg.NotificationRetentionDays),
		logger:           logger.Named("MaintenanceJob"),
		cronScheduler:    scheduler,
		now:              time.Now,
	}
}

// NewMaintenanceJobFromDeps is the injector-facing constructor.
func NewMaintenanceJobFromDeps(
	registry *appstate.Registry,
	store clientstore.Store,
	notifications notification.Service,
	listings listing.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *MaintenanceJob {
	return NewMaintenanceJob(registry, store, notifications, listings, logger, cfg)
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// SetupAndStart schedules and starts the cron job.
func (j *MaintenanceJob) SetupAndStart() error {
	if j.schedule == "" {
		j.logger.Warn("Maintenance job schedule not defined (MAINTENANCE_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(j.schedule, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule maintenance job", zap.String("schedule", j.schedule), zap.Error(err))
		return err
	}

	j.logger.Info("Maintenance job scheduled", zap.String("schedule", j.schedule), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *MaintenanceJob) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	j.RunOnce(ctx)
}

// RunOnce performs every cleanup step. A failing step is logged and the rest still run.
func (j *MaintenanceJob) RunOnce(ctx context.Context) Report {
	j.logger.Info("Starting maintenance job run...")
	var r Report

	if j.states != nil {
		n, err := j.states.EvictIdle(ctx)
		r.StatesEvicted = n
		j.logStep("idle client states", err, zap.Int("evicted", n))
	}
	if j.storage != nil && j.storageTTL > 0 {
		n, err := j.storage.DeleteStale(ctx, j.now().Add(-j.storageTTL))
		r.StorageDeleted = n
		j.logStep("stale client storage", err, zap.Int64("deleted", n))
	}
	if j.notifications != nil && j.notificationsTTL > 0 {
		n, err := j.notifications.PurgeRead(ctx, j.notificationsTTL)
		r.NotificationsPurged = n
		j.logStep("read notifications", err, zap.Int64("purged", n))
	}
	if j.listings != nil {
		n, err := j.listings.ExpireListings(ctx)
		r.ListingsExpired = n
		j.logStep("listing expiry", err, zap.Int("expired", n))
	}

	j.logger.Info("Maintenance job run completed", zap.Any("report", r))
	return r
}

// Report counts what one run cleaned up.
type Report struct {
	StatesEvicted       int   `json:"states_evicted"`
	StorageDeleted      int64 `json:"storage_deleted"`
	NotificationsPurged int64 `json:"notifications_purged"`
	ListingsExpired     int   `json:"listings_expired"`
}

func (j *MaintenanceJob) logStep(step string, err error, fields ...zap.Field) {
	if err != nil {
		j.logger.Error("Maintenance step failed", zap.String("step", step), zap.Error(err))
		return
	}
	j.logger.Debug("Maintenance step completed", append(fields, zap.String("step", step))...)
}

// Stop gracefully stops the cron scheduler.
func (j *MaintenanceJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping maintenance job scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Maintenance job scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Maintenance job scheduler stop timed out.")
	}
}

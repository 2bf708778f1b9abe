// File: internal/app/migrate.go
package app

import (
	"fmt"

	"localfelo_backend/internal/activity"
	"localfelo_backend/internal/area"
	"localfelo_backend/internal/clientstore"
	"localfelo_backend/internal/listing"
	"localfelo_backend/internal/notification"
	"localfelo_backend/internal/profile"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table the service owns, parents first.
func Models() []interface{} {
	return []interface{}{
		&profile.Profile{},
		&area.City{},
		&area.Area{},
		&area.SubArea{},
		&listing.Listing{},
		&notification.Notification{},
		&activity.Conversation{},
		&activity.Message{},
		&activity.Task{},
		&clientstore.Entry{},
	}
}

// AutoMigrate creates or extends the schema.
func AutoMigrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database auto-migration...")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	logger.Info("Database auto-migration completed.")
	return nil
}

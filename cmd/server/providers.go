// File: cmd/server/providers.go
package main

import (
	"log"

	"localfelo_backend/internal/config"
	"localfelo_backend/internal/platform/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// provideDB opens the database and returns a cleanup that closes it and flushes the logger.
func provideDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		logger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db)
		if err := logger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
		log.Println("Cleanup finished.")
	}
	return db, cleanup, nil
}

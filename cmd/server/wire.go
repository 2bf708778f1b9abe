// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"localfelo_backend/internal/activity"
	"localfelo_backend/internal/app"
	"localfelo_backend/internal/appstate"
	"localfelo_backend/internal/area"
	"localfelo_backend/internal/clientstore"
	"localfelo_backend/internal/config"
	"localfelo_backend/internal/firebase"
	"localfelo_backend/internal/jobs"
	"localfelo_backend/internal/listing"
	"localfelo_backend/internal/location"
	"localfelo_backend/internal/notification"
	"localfelo_backend/internal/platform/elasticsearch"
	"localfelo_backend/internal/platform/logger"
	"localfelo_backend/internal/profile"
	"localfelo_backend/internal/session"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		provideDB,
		elasticsearch.NewClient,
		firebase.NewAuthProvider,
		clientstore.NewStoreFromConfig,

		// Directory and identity
		profile.NewGORMRepository,
		profile.NewHandler,
		area.NewGORMRepository,
		area.NewService,
		area.NewHandler,
		location.NewResolverFromConfig,
		session.NewBootstrapperFromDeps,

		// Marketplace and activity
		listing.NewGORMRepository,
		listing.NewService,
		listing.NewHandler,
		activity.NewGORMRepository,
		wire.Bind(new(notification.ActivityCounter), new(activity.Repository)),

		// Notifications
		notification.NewHub,
		notification.NewGORMRepository,
		wire.Bind(new(notification.Recipients), new(profile.Repository)),
		notification.NewService,
		notification.NewHandler,
		notification.StreamConfigFromConfig,
		notification.NewCountStream,
		notification.NewPGBridge,

		// Client state
		appstate.NewDeps,
		appstate.NewRegistryFromConfig,
		appstate.NewHandler,
		jobs.NewMaintenanceJobFromDeps,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}

// initializeAreaService builds only what the sync-areas command needs.
func initializeAreaService(cfg *config.Config) (area.Service, func(), error) {
	wire.Build(
		logger.New,
		provideDB,
		elasticsearch.NewClient,
		area.NewGORMRepository,
		area.NewService,
	)
	return nil, nil, nil
}

// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"localfelo_backend/internal/appstate"
	"localfelo_backend/internal/area"
	"localfelo_backend/internal/common"
	"localfelo_backend/internal/config"
	"localfelo_backend/internal/jobs"
	"localfelo_backend/internal/listing"
	"localfelo_backend/internal/middleware"
	"localfelo_backend/internal/notification"
	"localfelo_backend/internal/platform/elasticsearch"
	"localfelo_backend/internal/platform/metrics"
	"localfelo_backend/internal/profile"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	db         *gorm.DB

	AppLogger *zap.Logger
	ESClient  *elasticsearch.ESClientWrapper

	// Background work
	bridge      *notification.PGBridge
	maintenance *jobs.MaintenanceJob
	stopBridge  context.CancelFunc
	bridgeDone  sync.WaitGroup
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	esClient *elasticsearch.ESClientWrapper,
	profiles profile.Repository,
	areaHandler *area.Handler,
	listingHandler *listing.Handler,
	profileHandler *profile.Handler,
	notificationHandler *notification.Handler,
	clientHandler *appstate.Handler,
	bridge *notification.PGBridge,
	maintenance *jobs.MaintenanceJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin", "Content-Type", "Accept", common.AuthorizationHeader, middleware.RequestIDHeader,
		common.ClientIDHeader, common.IDTokenHeader, appstate.InitialPathHeader,
	}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(profiles, logger.Named("AuthMiddleware"))
	optionalAuthMW := middleware.OptionalAuthMiddleware(profiles, logger.Named("AuthMiddleware"))
	adminRoleMW := middleware.RoleAuthMiddleware(common.RoleAdmin)

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "LocalFelo API is healthy!"})
	})
	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")
	areaHandler.RegisterRoutes(v1, authMW, adminRoleMW)
	listingHandler.RegisterRoutes(v1, optionalAuthMW)
	profileHandler.RegisterRoutes(v1, authMW)
	notificationHandler.RegisterRoutes(v1, authMW, adminRoleMW)
	clientHandler.RegisterRoutes(v1, middleware.ClientID())

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:  httpServer,
		router:      router,
		cfg:         cfg,
		db:          db,
		AppLogger:   logger,
		ESClient:    esClient,
		bridge:      bridge,
		maintenance: maintenance,
	}, nil
}

// Router exposes the configured engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	if s.cfg.DBAutoMigrate {
		if err := AutoMigrate(s.db, s.AppLogger); err != nil {
			s.AppLogger.Error("Failed to migrate database", zap.Error(err))
			return err
		}
	}

	if s.maintenance != nil {
		if err := s.maintenance.SetupAndStart(); err != nil {
			s.AppLogger.Error("Failed to setup and start maintenance job", zap.Error(err))
		}
	} else {
		s.AppLogger.Info("Maintenance job is not configured, skipping start.")
	}

	if s.bridge != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.stopBridge = cancel
		s.bridgeDone.Add(1)
		go func() {
			defer s.bridgeDone.Done()
			if err := s.bridge.Run(ctx); err != nil && ctx.Err() == nil {
				s.AppLogger.Error("Realtime bridge stopped", zap.Error(err))
			}
		}()
	} else {
		s.AppLogger.Info("Realtime bridge disabled (REALTIME_PG_CHANNEL unset), counts rely on polling.")
	}

	s.AppLogger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.AppLogger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.AppLogger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.AppLogger.Info("Attempting graceful server shutdown...")
	if s.maintenance != nil {
		s.maintenance.Stop()
	}
	if s.stopBridge != nil {
		s.stopBridge()
		s.bridgeDone.Wait()
	}
	return s.httpServer.Shutdown(ctx)
}

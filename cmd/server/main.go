// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"localfelo_backend/internal/config"
	"localfelo_backend/internal/platform/elasticsearch"

	"go.uber.org/zap"
)

func main() {
	syncAreasCmd := flag.NewFlagSet("sync-areas", flag.ExitOnError)
	timeout := syncAreasCmd.Duration("timeout", 10*time.Minute, "Maximum time for the whole sync")

	if len(os.Args) > 1 && os.Args[1] == "sync-areas" {
		if err := syncAreasCmd.Parse(os.Args[2:]); err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		runAreaSync(*timeout)
		return
	}

	startServer()
}

// runAreaSync pushes every area into the search index.
func runAreaSync(timeout time.Duration) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for sync: %v", err)
	}
	areas, cleanup, err := initializeAreaService(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize area service for sync: %v", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	indexed, err := areas.SyncSearchIndex(ctx)
	if err != nil {
		log.Printf("ERROR: Area synchronization failed after %d areas: %v", indexed, err)
		cleanup()
		os.Exit(1)
	}
	log.Printf("INFO: Area synchronization completed, %d areas indexed.", indexed)
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	if server.ESClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := elasticsearch.CreateAreasIndexIfNotExists(ctx, server.ESClient, server.AppLogger); err != nil {
			server.AppLogger.Error("Failed to create Elasticsearch areas index, area search falls back to the database.", zap.Error(err))
		}
		cancel()
	}

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}

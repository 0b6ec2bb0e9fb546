package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"conceptgraph-backend/infrastructure/config"
	"conceptgraph-backend/infrastructure/di"
	"conceptgraph-backend/interfaces/http/rest"
	ws "conceptgraph-backend/interfaces/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, err := di.InitializeContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Projection push channel. The hub lives here rather than in the
	// container so the service can be wired without a running event loop.
	var (
		hub      *ws.Hub
		wsServer *ws.Server
	)
	if wsCfg := container.Runtime.Current().WebSocket; wsCfg.Enabled {
		hub = ws.NewHub(wsCfg.MessageQueueSize, container.Metrics, container.Logger)
		go hub.Run()
		container.Service.SetProjectionPublisher(hub)
		wsServer = ws.NewServer(hub, container.Service, container.Logger)
	}

	// Create router
	router := rest.NewRouter(
		cfg,
		container.Service,
		wsServer,
		container.Registry,
		container.Logger,
	)
	handler := router.Setup()

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("oracleProvider", cfg.OracleProvider),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	container.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown error", zap.Error(err))
	}

	if hub != nil {
		hub.Stop()
	}
	container.Runtime.Stop()

	// Clean up resources
	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}

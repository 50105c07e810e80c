package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codementor/internal/api/handlers"
	"codementor/internal/api/routes"
	"codementor/internal/app"
	"codementor/internal/config"
	"codementor/internal/grpc/server"
	"codementor/internal/logging"
	"codementor/internal/mux"

	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting codementor server", map[string]interface{}{
		"version": handlers.Version,
		"storage": cfg.Storage.Backend,
		"engine":  cfg.Scraper.Engine,
	})

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build application", map[string]interface{}{"error": err.Error()})
	}
	if err := application.Start(true); err != nil {
		logger.Fatal("Failed to start application", map[string]interface{}{"error": err.Error()})
	}

	checks := application.Checks()

	var grpcServer *server.Server
	if cfg.Server.EnableGRPC {
		grpcServer = server.NewServer(checks, 30*time.Second, logger)
	}

	e := echo.New()
	e.HideBanner = true
	routes.SetupRoutes(e, cfg, routes.Dependencies{
		Router:  application.Router,
		Scraper: application.Scraper,
		Jobs:    application.Jobs,
		Checks:  checks,
		Details: func() map[string]string {
			details := map[string]string{
				"llm_provider":  application.LLM.GetProviderName(),
				"llm_providers": strings.Join(application.LLM.SupportedProviders(), ","),
				"fetch_engine":  application.Scraper.Engine(),
				"scrape_jobs":   "stopped",
			}
			if application.Jobs.IsHealthy() {
				details["scrape_jobs"] = "running"
			}
			if grpcServer != nil {
				for k, v := range grpcServer.Metrics().Summary() {
					details[k] = v
				}
			}
			return details
		},
	})

	multiplexer := mux.NewMultiplexer(cfg, grpcServer, e, logger)
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := multiplexer.Start(address); err != nil {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("Server started", map[string]interface{}{
		"address": multiplexer.GetAddress(),
		"grpc":    cfg.Server.EnableGRPC,
	})

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Stopping listeners...")
	if err := multiplexer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping multiplexer", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Stopping application components...")
	application.Stop(shutdownCtx)

	logger.Info("Server shutdown complete")
}

package routes

import (
	"net/http"
	"time"

	"codementor/internal/api/handlers"
	"codementor/internal/api/middleware"
	"codementor/internal/background"
	"codementor/internal/config"
	"codementor/internal/router"
	"codementor/internal/scraper"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// Dependencies are the services the HTTP surface exposes
type Dependencies struct {
	Router  *router.Router
	Scraper *scraper.Scraper
	// Jobs serves the asynchronous scrape endpoints; nil leaves them out
	Jobs *background.TaskManager
	// Checks are probed by /health/ready and /status
	Checks map[string]handlers.Checker
	// Details adds free-form entries to /status
	Details func() map[string]string
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, deps Dependencies) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig(cfg.Server.AllowOrigins))
	e.Use(middleware.RequestValidation(middleware.DefaultMaxBodyBytes))
	// completions retry with backoff and headless loads settle, so both get longer
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, 2*time.Minute, "/api/v1/messages", "/api/v1/scrape"))

	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(deps.Checks))
		health.GET("/live", handlers.LivenessHandler)
	}

	e.GET("/status", handlers.StatusHandler(deps.Checks, deps.Details))

	v1 := e.Group("/api/v1")
	{
		v1.POST("/messages", handlers.MessageHandler(deps.Router))
		v1.GET("/messages/types", handlers.MessageTypesHandler(deps.Router))
		v1.POST("/scrape", handlers.ScrapeHandler(deps.Scraper))
		v1.GET("/platforms", handlers.PlatformsHandler)
		v1.GET("/fetch/stats", handlers.FetchStatsHandler(deps.Scraper))

		if deps.Jobs != nil {
			v1.POST("/scrape/jobs", handlers.SubmitScrapeJobHandler(deps.Jobs))
			v1.GET("/scrape/jobs", handlers.ScrapeJobsHandler(deps.Jobs))
			v1.GET("/scrape/jobs/:id", handlers.ScrapeJobHandler(deps.Jobs))
		}
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "codementor",
			"version": handlers.Version,
			"status":  "running",
		})
	})
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"codementor/internal/api/validation"
	"codementor/internal/logging"
	"codementor/internal/platform"
	"codementor/internal/scraper"
	"codementor/pkg/models"
	"codementor/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

func init() {
	validation.RegisterMessageValidators(validate)
}

// ScrapeHandler handles POST /api/v1/scrape. With html set the snapshot is
// parsed; otherwise the page is fetched through the configured engine.
func ScrapeHandler(s *scraper.Scraper) echo.HandlerFunc {
	return func(c echo.Context) error {
		startTime := time.Now()
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger().WithField("request_id", requestID)

		var req models.ScrapeRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to bind request", map[string]interface{}{"error": err.Error()})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		if err := validate.Struct(&req); err != nil {
			logger.Warn("Request validation failed", map[string]interface{}{"error": err.Error()})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		var (
			problem *models.ProblemData
			err     error
			engine  = "snapshot"
		)
		if req.HTML != "" {
			problem, err = s.ScrapeHTML(req.URL, req.HTML)
		} else {
			engine = s.Engine()
			problem, err = s.ScrapeURL(c.Request().Context(), req.URL)
		}
		if err != nil {
			status := http.StatusInternalServerError
			var cErr *utils.CustomError
			if errors.As(err, &cErr) {
				status = cErr.Code
			}
			logger.Error("Scrape failed", map[string]interface{}{
				"url":    req.URL,
				"engine": engine,
				"error":  err.Error(),
			})
			return c.JSON(status, models.ScrapeResponse{
				Success:        false,
				Error:          err.Error(),
				ProcessingTime: time.Since(startTime),
				Engine:         engine,
				RequestID:      requestID,
			})
		}

		isProblem := platform.IsProblemPage(problem.Platform, req.URL)
		logger.Info("Scrape request completed", map[string]interface{}{
			"url":             req.URL,
			"platform":        string(problem.Platform),
			"is_problem_page": isProblem,
			"engine":          engine,
			"processing_time": utils.FormatDuration(time.Since(startTime)),
		})

		return c.JSON(http.StatusOK, models.ScrapeResponse{
			Success:        true,
			Problem:        problem,
			IsProblemPage:  isProblem,
			ProcessingTime: time.Since(startTime),
			Engine:         engine,
			RequestID:      requestID,
		})
	}
}

// PlatformsHandler lists the supported platforms
func PlatformsHandler(c echo.Context) error {
	infos := make([]models.PlatformInfo, 0, len(models.Platforms))
	for _, p := range models.Platforms {
		infos = append(infos, models.PlatformInfo{
			ID:          p,
			Host:        platform.Host(p),
			SettleDelay: scraper.SettleDelay(p).String(),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"platforms": infos,
	})
}

// FetchStatsHandler returns the per-domain rate limiter and circuit state
func FetchStatsHandler(s *scraper.Scraper) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()

		stats, ok := s.FetchStats()
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:     "stats_unavailable",
				Message:   "The fetch engine does not track domain statistics",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":    true,
			"engine":     s.Engine(),
			"domains":    stats,
			"request_id": requestID,
			"timestamp":  time.Now(),
		})
	}
}

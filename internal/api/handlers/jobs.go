package handlers

import (
	"errors"
	"net/http"
	"time"

	"codementor/internal/background"
	"codementor/internal/logging"
	"codementor/pkg/models"
	"codementor/pkg/utils"

	"github.com/labstack/echo/v4"
)

// SubmitScrapeJobHandler handles POST /api/v1/scrape/jobs. The scrape runs in
// the background; the accepted record carries the process id to poll.
func SubmitScrapeJobHandler(tm *background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger().WithField("request_id", requestID)

		var req models.ScrapeRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}
		if err := validate.Struct(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		result, err := tm.Submit(c.Request().Context(), req)
		if err != nil {
			logger.Warn("Scrape job rejected", map[string]interface{}{
				"url":   req.URL,
				"error": err.Error(),
			})
			var tErr *background.TaskError
			code := "internal_error"
			status := http.StatusInternalServerError
			if errors.As(err, &tErr) {
				code = tErr.Code
				status = http.StatusServiceUnavailable
			}
			return c.JSON(status, models.ErrorResponse{
				Error:     code,
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusAccepted, result)
	}
}

// ScrapeJobHandler handles GET /api/v1/scrape/jobs/:id
func ScrapeJobHandler(tm *background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		result, err := tm.Get(c.Request().Context(), c.Param("id"))
		if errors.Is(err, background.ErrTaskNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:     background.ErrTaskNotFound.Code,
				Message:   "No scrape job with that id",
				RequestID: utils.GenerateRequestID(),
				Timestamp: time.Now(),
			})
		}
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}
}

// ScrapeJobsHandler handles GET /api/v1/scrape/jobs
func ScrapeJobsHandler(tm *background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		results, err := tm.List(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"jobs":    results,
		})
	}
}

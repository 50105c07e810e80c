package handlers

import (
	"io"
	"net/http"
	"time"

	"codementor/internal/logging"
	"codementor/internal/router"
	"codementor/pkg/models"
	"codementor/pkg/utils"

	"github.com/labstack/echo/v4"
)

// MessageHandler handles POST /api/v1/messages. Routed messages always answer
// 200; the body's success flag and code carry the outcome.
func MessageHandler(r *router.Router) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger()

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			logger.Error("Failed to read message body", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Failed to read request body",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, r.Dispatch(c.Request().Context(), body))
	}
}

// MessageTypesHandler lists the message types the router accepts
func MessageTypesHandler(r *router.Router) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"types":   r.Types(),
		})
	}
}

package middleware

import (
	"net/http"
	"time"

	"codementor/pkg/models"
	"codementor/pkg/utils"

	"github.com/labstack/echo/v4"
)

// DefaultMaxBodyBytes bounds POST bodies; DOM snapshots of problem pages fit
// comfortably.
const DefaultMaxBodyBytes = 2 << 20

// RequestValidation tags every request with an id and rejects oversized POST
// bodies
func RequestValidation(maxBodyBytes int64) echo.MiddlewareFunc {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = utils.GenerateRequestID()
			}
			c.Set("request_id", requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			if c.Request().Method == http.MethodPost {
				if c.Request().ContentLength > maxBodyBytes {
					return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
						Error:     "request_too_large",
						Message:   "Request body too large",
						RequestID: requestID,
						Timestamp: time.Now(),
					})
				}
				c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxBodyBytes)
			}

			return next(c)
		}
	}
}

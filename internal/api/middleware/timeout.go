package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SelectiveTimeoutConfig applies long to paths under one of the slow prefixes
// (model completions with retries, headless page loads) and short elsewhere.
func SelectiveTimeoutConfig(short, long time.Duration, slowPrefixes ...string) echo.MiddlewareFunc {
	isSlow := func(c echo.Context) bool {
		for _, p := range slowPrefixes {
			if strings.HasPrefix(c.Request().URL.Path, p) {
				return true
			}
		}
		return false
	}

	shortMW := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper:      isSlow,
		Timeout:      short,
		ErrorMessage: `{"error":"timeout","message":"request timed out"}`,
	})
	longMW := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper:      func(c echo.Context) bool { return !isSlow(c) },
		Timeout:      long,
		ErrorMessage: `{"error":"timeout","message":"request timed out"}`,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return shortMW(longMW(next))
	}
}

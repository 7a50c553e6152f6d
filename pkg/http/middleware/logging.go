package middleware

import (
	"strings"
	"time"

	applogger "MacroPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs HTTP requests at debug level and server errors at warn.
// Paths starting with one of skip (health checks, scrapes) are not logged.
func RequestLogging(l *applogger.Logger, skip ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			for _, p := range skip {
				if p != "" && strings.HasPrefix(req.URL.Path, p) {
					return next(c)
				}
			}
			start := time.Now()

			err := next(c)

			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("route", c.Path()),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("duration_ms", time.Since(start)),
			}
			if err != nil {
				fields = append(fields, applogger.Error(err))
			}
			if c.Response().Status >= 500 {
				l.Warn("http request failed", fields...)
				return err
			}
			l.Debug("http request", fields...)
			return err
		}
	}
}

package middleware

import (
	"outfitJourney/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TraceMiddleware tags each request with a trace id, reusing a well-formed
// upstream X-Request-ID. The id is echoed back and carried in the request
// context into background feedback.
func TraceMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := logger.ResolveTraceID(c.Request().Header.Get(echo.HeaderXRequestID))
			c.Response().Header().Set(echo.HeaderXRequestID, traceID)

			req := c.Request()
			c.SetRequest(req.WithContext(logger.ContextWithTraceID(req.Context(), traceID)))

			return next(c)
		}
	}
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
)

// RequestIDHeader carries the correlation id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or generates one, stores it in
// the gin and request contexts, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.WithRequestID(c.Request.Context(), c.GetHeader(RequestIDHeader))
		id := logger.RequestIDFromContext(ctx)

		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// Logger middleware for logging HTTP requests. It also stores l in the
// request context so handlers and services can use logger.Ctx.
func Logger(l logger.Logger) gin.HandlerFunc {
	if l == nil {
		l = logger.Default()
	}
	l = l.With(logger.Component("http"))

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		ctx := c.Request.Context()
		if userID := c.Param("user_id"); userID != "" {
			ctx = logger.WithUserID(ctx, userID)
		}
		c.Request = c.Request.WithContext(logger.WithLogger(ctx, l))

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := []logger.Field{
			logger.String("method", method),
			logger.String("path", path),
			logger.String("route", c.FullPath()),
			logger.Int("status", statusCode),
			logger.Duration("latency", latency),
			logger.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.String("errors", c.Errors.String()))
		}

		log := l.WithContext(c.Request.Context())
		switch {
		case statusCode >= 500:
			log.Error("request completed", fields...)
		case statusCode >= 400:
			log.Warn("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}

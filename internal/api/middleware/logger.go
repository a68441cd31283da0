package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/timmy/artmatch/internal/logger"
	"github.com/timmy/artmatch/internal/metrics"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger returns a Gin middleware that attaches a request-scoped
// logger to the request context and logs each completed request.
// An incoming X-Request-ID is reused so callers can correlate runs.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		ctx := logger.SetRequestID(c.Request.Context(), requestID)
		ctx = logger.SetComponent(ctx, "api")
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()

		logger.With(logger.Fields{
			"method": c.Request.Method,
			"route":  route,
		}).WithStatus(strconv.Itoa(status)).
			WithDuration(time.Since(start).Milliseconds()).
			Info(ctx, "Request completed: %s %s", c.Request.Method, c.Request.URL.Path)
	}
}

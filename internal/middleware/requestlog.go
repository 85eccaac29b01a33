package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

// RequestLog logs one line per request with method, path, status and
// latency.
func RequestLog(baseLog *logger.Logger) gin.HandlerFunc {
	log := baseLog.With("middleware", "RequestLog")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blogdesk/blogdesk/pkg/logger"
)

// AccessLog writes one structured line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		}
		if status >= 500 {
			logger.Warnw("request failed", kv...)
			return
		}
		logger.Infow("request", kv...)
	}
}

// README: Request logging and per-route request counter.
package middleware

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"flock/internal/metrics"
)

func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		log.Printf("[HTTP] %s %s %d %dms", c.Request.Method, c.Request.URL.Path, status, time.Since(start).Milliseconds())
	}
}

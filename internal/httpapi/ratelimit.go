package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/codewithme13/signai-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit enforces a fixed-window request budget per client IP, shared
// across instances through redis. With no redis client (the in-memory
// backend) it passes everything through.
func RateLimit(rdb *redis.Client, log *slog.Logger, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := "ratelimit:api:" + c.ClientIP()
		ok, err := utils.AllowFixedWindow(c.Request.Context(), rdb, key, limit, window)
		if err != nil {
			// Redis trouble must not take the API down with it.
			log.Warn("rate limit check failed", "err", err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

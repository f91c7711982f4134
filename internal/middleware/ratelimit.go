package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cardvault/cardvault-backend/pkg/cache"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RateLimit enforces a fixed-window limit per client for a route group.
// Authenticated requests are keyed by user id, anonymous ones by client
// IP. When the store is disabled or unreachable the request passes; rate
// limiting degrades rather than taking the API down.
func RateLimit(store *cache.Cache, name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.Enabled() {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if userID, ok := CurrentUserID(c); ok {
			subject = userID.Hex()
		}
		key := fmt.Sprintf("rl:%s:%s", name, subject)

		count, err := store.Increment(c.Request.Context(), key, window)
		if err != nil {
			log.WithError(err).Warn("rate limit store unavailable")
			c.Next()
			return
		}
		if count > int64(limit) {
			log.WithFields(log.Fields{"limiter": name, "subject": subject}).Warn("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests, please try again later.",
			})
			return
		}
		c.Next()
	}
}

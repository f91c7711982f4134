package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/cardvault/cardvault-backend/pkg/cache"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// bodyCapturingWriter tees the response body so a successful payload can
// be stored after the handler ran. This is an explicit decorator with a
// before/after contract, not a patched send function.
type bodyCapturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCapturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// CacheResponse serves GET responses from Redis for the given TTL. Cache
// keys are scoped per user so one caller can never see another's payload.
func CacheResponse(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.Enabled() || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if userID, ok := CurrentUserID(c); ok {
			subject = userID.Hex()
		}
		key := fmt.Sprintf("cache:%s:%s", subject, c.Request.URL.RequestURI())

		if cached, err := store.Get(c.Request.Context(), key); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			c.Abort()
			return
		} else if err != cache.ErrMiss {
			log.WithError(err).Warn("response cache unavailable")
		}

		writer := &bodyCapturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		if c.Writer.Status() == http.StatusOK {
			if err := store.Set(c.Request.Context(), key, writer.body.Bytes(), ttl); err != nil {
				log.WithError(err).Warn("failed to cache response")
			}
		}
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cardvault/cardvault-backend/internal/metrics"
	"github.com/cardvault/cardvault-backend/internal/services"
	"github.com/cardvault/cardvault-backend/pkg/cache"
	"github.com/cardvault/cardvault-backend/pkg/mongodb"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// MonitoringHandler serves health and metrics endpoints
type MonitoringHandler struct {
	mongo       *mongodb.Client
	store       *cache.Cache
	collector   *metrics.Collector
	userService *services.UserService
}

// NewMonitoringHandler creates a new MonitoringHandler
func NewMonitoringHandler(mongo *mongodb.Client, store *cache.Cache, collector *metrics.Collector, userService *services.UserService) *MonitoringHandler {
	return &MonitoringHandler{
		mongo:       mongo,
		store:       store,
		collector:   collector,
		userService: userService,
	}
}

// Health handles GET /api/monitoring/health. It pings the backing stores
// and reports per-dependency status; any failed dependency turns the
// overall status degraded with a 503.
func (h *MonitoringHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	deps := gin.H{}
	healthy := true

	if err := h.mongo.Ping(ctx); err != nil {
		deps["mongodb"] = gin.H{"status": "down", "error": err.Error()}
		healthy = false
	} else {
		deps["mongodb"] = gin.H{"status": "up"}
	}

	if h.store.Enabled() {
		if err := h.store.Ping(ctx); err != nil {
			deps["redis"] = gin.H{"status": "down", "error": err.Error()}
			healthy = false
		} else {
			deps["redis"] = gin.H{"status": "up"}
		}
	} else {
		deps["redis"] = gin.H{"status": "disabled"}
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"success":      healthy,
		"status":       overall,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"dependencies": deps,
	})
}

// Metrics handles GET /api/monitoring/metrics
func (h *MonitoringHandler) Metrics(c *gin.Context) {
	users, err := h.userService.Count(c.Request.Context())
	if err != nil {
		log.WithError(err).Warn("failed to count users for metrics")
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"metrics":    h.collector.Snapshot(),
		"totalUsers": users,
	})
}

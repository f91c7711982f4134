// Package metrics provides an injected request-metrics collector. A
// Collector is created at process start and handed to the router; tests
// instantiate their own isolated instances. There is deliberately no
// package-level state.
package metrics

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RouteStats aggregates observations for one route.
type RouteStats struct {
	Count        int64   `json:"count"`
	Errors       int64   `json:"errors"`
	TotalMillis  int64   `json:"totalMillis"`
	AvgMillis    float64 `json:"avgMillis"`
	MaxMillis    int64   `json:"maxMillis"`
	LastStatus   int     `json:"lastStatus"`
	LastSeenUnix int64   `json:"lastSeenUnix"`
}

// Snapshot is a point-in-time read of the collector.
type Snapshot struct {
	StartedAt     time.Time             `json:"startedAt"`
	UptimeSeconds int64                 `json:"uptimeSeconds"`
	TotalRequests int64                 `json:"totalRequests"`
	TotalErrors   int64                 `json:"totalErrors"`
	Routes        map[string]RouteStats `json:"routes"`
}

// Collector accumulates per-route request counts and latencies.
type Collector struct {
	mu        sync.Mutex
	startedAt time.Time
	total     int64
	errors    int64
	routes    map[string]*RouteStats
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		startedAt: time.Now(),
		routes:    make(map[string]*RouteStats),
	}
}

// Observe records one request outcome.
func (c *Collector) Observe(route string, status int, elapsed time.Duration) {
	millis := elapsed.Milliseconds()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	if status >= 500 {
		c.errors++
	}
	stats, ok := c.routes[route]
	if !ok {
		stats = &RouteStats{}
		c.routes[route] = stats
	}
	stats.Count++
	if status >= 500 {
		stats.Errors++
	}
	stats.TotalMillis += millis
	if millis > stats.MaxMillis {
		stats.MaxMillis = millis
	}
	stats.LastStatus = status
	stats.LastSeenUnix = time.Now().Unix()
}

// Snapshot returns a copy of the current state.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	routes := make(map[string]RouteStats, len(c.routes))
	for route, stats := range c.routes {
		copied := *stats
		if copied.Count > 0 {
			copied.AvgMillis = float64(copied.TotalMillis) / float64(copied.Count)
		}
		routes[route] = copied
	}
	return Snapshot{
		StartedAt:     c.startedAt,
		UptimeSeconds: int64(time.Since(c.startedAt).Seconds()),
		TotalRequests: c.total,
		TotalErrors:   c.errors,
		Routes:        routes,
	}
}

// Middleware returns a gin middleware feeding the collector.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.Observe(ctx.Request.Method+" "+route, ctx.Writer.Status(), time.Since(start))
	}
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestCollectorObserve(t *testing.T) {
	c := NewCollector()

	c.Observe("GET /api/cards", 200, 10*time.Millisecond)
	c.Observe("GET /api/cards", 200, 30*time.Millisecond)
	c.Observe("GET /api/cards", 500, 20*time.Millisecond)
	c.Observe("POST /api/cards", 201, 5*time.Millisecond)

	snap := c.Snapshot()
	if snap.TotalRequests != 4 {
		t.Errorf("total = %d, want 4", snap.TotalRequests)
	}
	if snap.TotalErrors != 1 {
		t.Errorf("errors = %d, want 1", snap.TotalErrors)
	}

	cards := snap.Routes["GET /api/cards"]
	if cards.Count != 3 || cards.Errors != 1 {
		t.Errorf("route stats = %+v", cards)
	}
	if cards.AvgMillis != 20 {
		t.Errorf("avg = %v, want 20", cards.AvgMillis)
	}
	if cards.MaxMillis != 30 {
		t.Errorf("max = %d, want 30", cards.MaxMillis)
	}
	if cards.LastStatus != 500 {
		t.Errorf("last status = %d, want 500", cards.LastStatus)
	}
}

func TestCollectorConcurrentObserve(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.Observe("GET /api/rewards/points", 200, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.TotalRequests != 1000 {
		t.Errorf("total = %d, want 1000", snap.TotalRequests)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewCollector()
	c.Observe("GET /x", 200, time.Millisecond)

	snap := c.Snapshot()
	stats := snap.Routes["GET /x"]
	stats.Count = 99
	snap.Routes["GET /x"] = stats

	if got := c.Snapshot().Routes["GET /x"].Count; got != 1 {
		t.Errorf("mutating a snapshot leaked into the collector: count = %d", got)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := NewCollector()

	router := gin.New()
	router.Use(c.Middleware())
	router.GET("/api/cards/:id", func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	for _, path := range []string{"/api/cards/1", "/api/cards/2"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
	}

	snap := c.Snapshot()
	stats, ok := snap.Routes["GET /api/cards/:id"]
	if !ok {
		t.Fatalf("routes = %v, want the route pattern as the key", snap.Routes)
	}
	if stats.Count != 2 {
		t.Errorf("count = %d, want 2", stats.Count)
	}

	// Unregistered paths are pooled so the map stays bounded.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if _, ok := c.Snapshot().Routes["GET unmatched"]; !ok {
		t.Error("expected unmatched requests under a single key")
	}
}

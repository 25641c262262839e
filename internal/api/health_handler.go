package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/shipment-importer/internal/pkg/httputil"
	"github.com/ignite/shipment-importer/internal/storage"
)

// Component and overall states reported by the health endpoints.
const (
	stateUp        = "up"
	stateDown      = "down"
	stateDegraded  = "degraded"
	stateHealthy   = "healthy"
	stateUnhealthy = "unhealthy"

	notConfigured = "not configured"
	healthVersion = "1.0.0"
)

// criticalChecks take the whole service down when they fail. Without the
// database no import can run; Redis and the archive have fallbacks.
var criticalChecks = map[string]bool{"database": true}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string                    `json:"status"`
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck is the state of one dependency.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// dependency is one probe run by the health checker. A nil ping means the
// dependency is not configured in this deployment.
type dependency struct {
	name    string
	timeout time.Duration
	slow    time.Duration
	ping    func(context.Context) error
}

// HealthChecker probes the database, Redis and the upload archive.
type HealthChecker struct {
	deps    []dependency
	started time.Time
}

// NewHealthChecker builds a checker. Any argument may be nil.
func NewHealthChecker(db *sql.DB, rdb *redis.Client, archive storage.Archive) *HealthChecker {
	hc := &HealthChecker{started: time.Now()}

	database := dependency{name: "database", timeout: 3 * time.Second, slow: time.Second}
	if db != nil {
		database.ping = db.PingContext
	}
	cache := dependency{name: "redis", timeout: 2 * time.Second, slow: 500 * time.Millisecond}
	if rdb != nil {
		cache.ping = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	uploads := dependency{name: "archive", timeout: 3 * time.Second, slow: 2 * time.Second}
	if archive != nil {
		uploads.ping = archive.Ping
	}

	hc.deps = []dependency{database, cache, uploads}
	return hc
}

// HandleHealth always answers 200; the body carries the status.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := hc.check(r.Context())
	httputil.OK(w, HealthStatus{
		Status:  determineOverallStatus(checks),
		Version: healthVersion,
		Uptime:  formatUptime(time.Since(hc.started)),
		Checks:  checks,
	})
}

//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.started)),
	})
}

// HandleReadiness answers 503 while a critical dependency is down.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := hc.check(r.Context())
	overall := determineOverallStatus(checks)

	code := http.StatusOK
	if overall == stateUnhealthy {
		code = http.StatusServiceUnavailable
	}
	httputil.JSON(w, code, map[string]interface{}{
		"ready":  overall != stateUnhealthy,
		"status": overall,
		"checks": checks,
	})
}

// check probes every dependency concurrently.
func (hc *HealthChecker) check(ctx context.Context) map[string]ComponentCheck {
	checks := make(map[string]ComponentCheck, len(hc.deps))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, d := range hc.deps {
		wg.Add(1)
		go func(d dependency) {
			defer wg.Done()
			c := d.probe(ctx)
			mu.Lock()
			checks[d.name] = c
			mu.Unlock()
		}(d)
	}
	wg.Wait()
	return checks
}

func (d dependency) probe(ctx context.Context) ComponentCheck {
	if d.ping == nil {
		return ComponentCheck{Status: stateDown, Message: notConfigured}
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := d.ping(ctx)
	latency := time.Since(start).Round(time.Microsecond)

	switch {
	case err != nil:
		return ComponentCheck{Status: stateDown, Latency: latency.String(), Message: fmt.Sprintf("ping failed: %v", err)}
	case latency > d.slow:
		return ComponentCheck{Status: stateDegraded, Latency: latency.String(), Message: fmt.Sprintf("slow response (%s)", latency)}
	}
	return ComponentCheck{Status: stateUp, Latency: latency.String(), Message: "connected"}
}

// determineOverallStatus is unhealthy when a configured critical check is
// down, degraded when any other configured check is not up, else healthy.
func determineOverallStatus(checks map[string]ComponentCheck) string {
	overall := stateHealthy
	for name, c := range checks {
		if c.Status == stateUp || c.Message == notConfigured {
			continue
		}
		if criticalChecks[name] && c.Status == stateDown {
			return stateUnhealthy
		}
		overall = stateDegraded
	}
	return overall
}

// formatUptime renders d as "3d 4h 12m 5s", dropping leading zero units.
func formatUptime(d time.Duration) string {
	total := int64(d / time.Second)
	parts := []struct {
		n    int64
		unit string
	}{
		{total / 86400, "d"},
		{total % 86400 / 3600, "h"},
		{total % 3600 / 60, "m"},
		{total % 60, "s"},
	}

	var b strings.Builder
	for i, p := range parts {
		if b.Len() == 0 && p.n == 0 && i < len(parts)-1 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d%s", p.n, p.unit)
	}
	return b.String()
}

package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const readinessTimeout = 5 * time.Second

// CacheState is implemented by the snapshot caches; a zero LoadedAt means never loaded
type CacheState interface {
	Name() string
	LoadedAt() time.Time
}

// HealthStatus is the readiness report of the service
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus is the outcome of a single probe
type DependencyStatus struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latency_ms,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// probe checks one dependency. A failing probe reports onFailure, which is
// unhealthy for the database and degraded for everything the service can run without.
type probe struct {
	name      string
	onFailure string
	run       func(ctx context.Context) (status, message string)
}

// HealthChecker runs the dependency probes behind the readiness endpoint
type HealthChecker struct {
	probes  []probe
	version string
	now     func() time.Time
}

// NewHealthChecker creates a health checker; db and redis may be nil
func NewHealthChecker(db *sql.DB, redis *redis.Client, version string) *HealthChecker {
	h := &HealthChecker{version: version, now: time.Now}
	if db != nil {
		h.probes = append(h.probes, probe{name: "database", onFailure: StatusUnhealthy, run: databaseProbe(db)})
	}
	// redis only backs the registry fallback
	if redis != nil {
		h.probes = append(h.probes, probe{
			name:      "redis",
			onFailure: StatusDegraded,
			run: func(ctx context.Context) (string, string) {
				if err := redis.Ping(ctx).Err(); err != nil {
					return StatusUnhealthy, err.Error()
				}
				return StatusHealthy, ""
			},
		})
	}
	return h
}

// WithCaches adds snapshot caches to the readiness check. A cache that never loaded, or
// that is older than maxAge, reports degraded; maxAge zero disables the age check.
func (h *HealthChecker) WithCaches(maxAge time.Duration, caches ...CacheState) *HealthChecker {
	for _, c := range caches {
		c := c
		h.probes = append(h.probes, probe{
			name:      "cache:" + c.Name(),
			onFailure: StatusDegraded,
			run: func(context.Context) (string, string) {
				return h.cacheAge(c, maxAge)
			},
		})
	}
	return h
}

func (h *HealthChecker) cacheAge(c CacheState, maxAge time.Duration) (string, string) {
	loadedAt := c.LoadedAt()
	if loadedAt.IsZero() {
		return StatusDegraded, "never loaded"
	}
	if maxAge > 0 && h.now().Sub(loadedAt) > maxAge {
		return StatusDegraded, "stale since " + loadedAt.UTC().Format(time.RFC3339)
	}
	return StatusHealthy, ""
}

func databaseProbe(db *sql.DB) func(ctx context.Context) (string, string) {
	return func(ctx context.Context) (string, string) {
		var one int
		if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return StatusUnhealthy, "timed out"
			}
			return StatusUnhealthy, "query failed: " + err.Error()
		}
		stats := db.Stats()
		if stats.MaxOpenConnections > 0 && stats.OpenConnections >= stats.MaxOpenConnections {
			return StatusDegraded, "connection pool exhausted"
		}
		return StatusHealthy, ""
	}
}

// Check runs every probe and folds the results into the overall status
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	report := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    h.now(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus, len(h.probes)),
	}

	for _, p := range h.probes {
		start := time.Now()
		status, message := p.run(ctx)
		report.Dependencies[p.name] = DependencyStatus{
			Status:    status,
			Message:   message,
			Latency:   time.Since(start),
			Timestamp: h.now(),
		}

		switch status {
		case StatusUnhealthy:
			report.Status = worst(report.Status, p.onFailure)
		case StatusDegraded:
			report.Status = worst(report.Status, StatusDegraded)
		}
	}
	return report
}

func worst(a, b string) string {
	rank := map[string]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// Liveness answers 200 as long as the process serves requests
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthStatus{Status: StatusHealthy, Timestamp: h.now(), Version: h.version})
}

// Readiness answers 503 only when unhealthy; a degraded service keeps serving its last snapshots
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	report := h.Check(ctx)
	code := http.StatusOK
	if report.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeHealth(w, code, report)
}

func writeHealth(w http.ResponseWriter, code int, report HealthStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(report)
}

// RegisterHealthRoutes registers health check endpoints
func RegisterHealthRoutes(mux *http.ServeMux, checker *HealthChecker) {
	mux.HandleFunc("/health", checker.Readiness)
	mux.HandleFunc("/health/live", checker.Liveness)
	mux.HandleFunc("/health/ready", checker.Readiness)
}

package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is satisfied by *pgxpool.Pool and caching.RateLimiter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readier is satisfied by services.ArtifactStore.
type Readier interface {
	Ready(ctx context.Context) error
}

// JobReporter is satisfied by *background.JobScheduler.
type JobReporter interface {
	GetJobStatus() map[string]interface{}
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db      Pinger
	cache   Pinger
	store   Readier
	jobs    JobReporter
	version string
	started time.Time
}

// NewHealthHandlers creates a new health handlers instance. cache may be nil when
// rate limiting is disabled.
func NewHealthHandlers(db Pinger, cache Pinger, store Readier, version string) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		store:   store,
		version: version,
		started: time.Now(),
	}
}

// WithJobs adds the scheduler's job status to the liveness response.
func (h *HealthHandlers) WithJobs(jobs JobReporter) *HealthHandlers {
	h.jobs = jobs
	return h
}

func (h *HealthHandlers) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.LivenessCheck)
	e.GET("/health/ready", h.ReadinessCheck)
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status     string                 `json:"status"`
	Timestamp  string                 `json:"timestamp"`
	Services   map[string]string      `json:"services,omitempty"`
	Uptime     string                 `json:"uptime"`
	Version    string                 `json:"version"`
	Goroutines int                    `json:"goroutines,omitempty"`
	Jobs       map[string]interface{} `json:"jobs,omitempty"`
}

// LivenessCheck determines if the application is running (basic liveness probe)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	status := &HealthStatus{
		Status:     "alive",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     time.Since(h.started).Truncate(time.Second).String(),
		Version:    h.version,
		Goroutines: runtime.NumGoroutine(),
	}
	if h.jobs != nil {
		status.Jobs = h.jobs.GetJobStatus()
	}
	return c.JSON(http.StatusOK, status)
}

// ReadinessCheck reports 503 when the database or object store is down. A failing
// cache only degrades the service: rate limiting lets requests through without it.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	health := &HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Uptime:    time.Since(h.started).Truncate(time.Second).String(),
		Version:   h.version,
	}

	critical := false
	if err := h.db.Ping(ctx); err != nil {
		health.Services["database"] = "unhealthy"
		critical = true
	} else {
		health.Services["database"] = "healthy"
	}

	if err := h.store.Ready(ctx); err != nil {
		health.Services["storage"] = "unhealthy"
		critical = true
	} else {
		health.Services["storage"] = "healthy"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			health.Services["redis"] = "unhealthy"
			health.Status = "degraded"
		} else {
			health.Services["redis"] = "healthy"
		}
	}

	if critical {
		health.Status = "not_ready"
		return c.JSON(http.StatusServiceUnavailable, health)
	}
	return c.JSON(http.StatusOK, health)
}

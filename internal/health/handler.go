// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

const checkTimeout = 5 * time.Second

type Checker interface {
	Ping(ctx context.Context) error
}

// Check pairs a dependency with its ping. Optional checks are reported
// but never take the instance out of rotation.
type Check struct {
	Name     string
	Checker  Checker
	Optional bool
}

type Info struct {
	Name        string
	Version     string
	Environment string
}

type Handler struct {
	info     Info
	checks   []Check
	started  time.Time
	shutdown atomic.Bool
	now      func() time.Time
}

func NewHandler(info Info, checks ...Check) *Handler {
	return &Handler{
		info:    info,
		checks:  checks,
		started: time.Now(),
		now:     time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
	r.Get("/health", h.Liveness)
}

// RegisterAPIRoutes mounts the health and index routes under the /api group.
func (h *Handler) RegisterAPIRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/health", h.Liveness)
}

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		h.write(w, http.StatusServiceUnavailable, StatusResponse{Status: "shutting_down"})
		return
	}

	now := h.now()
	h.write(w, http.StatusOK, StatusResponse{
		Status:      "healthy",
		Timestamp:   now.UTC().Format(time.RFC3339),
		Environment: h.info.Environment,
		Uptime:      now.Sub(h.started).Seconds(),
	})
}

// Readiness fails only when a required dependency is down.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		h.write(w, http.StatusServiceUnavailable, StatusResponse{Status: "shutting_down"})
		return
	}

	results := h.runChecks(r.Context())

	status, code := "ok", http.StatusOK
	for i := range results {
		if results[i].Healthy {
			continue
		}
		if results[i].Required {
			status, code = "unavailable", http.StatusServiceUnavailable
			break
		}
		status = "degraded"
	}

	h.write(w, code, ReadinessResponse{Status: status, Checks: results})
}

// Index lists the API's top level route groups.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	core.OK(w, map[string]any{
		"message": h.info.Name + " API",
		"version": h.info.Version,
		"endpoints": map[string]string{
			"auth":     "/api/auth",
			"admin":    "/api/admin",
			"user":     "/api/user",
			"products": "/api/products",
			"payments": "/api/payments",
			"telegram": "/api/telegram",
		},
		"status": map[string]string{
			"health":    "/api/health",
			"readiness": "/readyz",
		},
	})
}

func (h *Handler) runChecks(ctx context.Context) []CheckResult {
	results := make([]CheckResult, len(h.checks))

	var wg sync.WaitGroup
	for i, c := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = runCheck(ctx, c)
		}()
	}
	wg.Wait()

	return results
}

func runCheck(ctx context.Context, c Check) CheckResult {
	res := CheckResult{Name: c.Name, Required: !c.Optional}

	if c.Checker == nil {
		res.Message = "not configured"
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := c.Checker.Ping(ctx)
	res.Latency = time.Since(start).String()

	if err != nil {
		res.Message = "ping failed"
		return res
	}

	res.Healthy = true
	return res
}

func (h *Handler) SetShutdown(shutdown bool) {
	h.shutdown.Store(shutdown)
}

func (h *Handler) write(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	core.JSON(w, status, data)
}

type StatusResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp,omitempty"`
	Environment string  `json:"environment,omitempty"`
	Uptime      float64 `json:"uptime,omitempty"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []CheckResult `json:"checks"`
}

type CheckResult struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Required bool   `json:"required"`
	Latency  string `json:"latency,omitempty"`
	Message  string `json:"message,omitempty"`
}

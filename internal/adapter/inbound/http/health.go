package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"

	"github.com/Sentinel-Gate/toolgate/internal/domain/policy"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`            // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`            // Component check results
	Version string            `json:"version,omitempty"` // Optional version info
}

// TableProvider returns the policy table in force.
type TableProvider interface {
	Active() *policy.Table
}

// HealthChecker reports the proxy's state.
type HealthChecker struct {
	tables  TableProvider
	metrics *Metrics
	version string
}

// NewHealthChecker creates a HealthChecker. metrics may be nil.
func NewHealthChecker(tables TableProvider, metrics *Metrics, version string) *HealthChecker {
	return &HealthChecker{
		tables:  tables,
		metrics: metrics,
		version: version,
	}
}

// Check reports the policy in force and the backend state. The proxy is
// unhealthy once its backend has exited.
func (h *HealthChecker) Check() HealthResponse {
	checks := make(map[string]string)
	healthy := true

	if h.tables != nil {
		table := h.tables.Active()
		checks["policy"] = fmt.Sprintf("ok: %d rules, version %s", table.Len(), table.Version())
	} else {
		checks["policy"] = "not configured"
	}

	if h.metrics != nil {
		exited, code := h.metrics.BackendState()
		checks["backend"] = backendStateLabel(exited, code)
		if exited {
			healthy = false
		}
	}

	// Add Go runtime info
	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthResponse{
		Status:  status,
		Checks:  checks,
		Version: h.version,
	}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check()

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable) // 503
		} else {
			w.WriteHeader(http.StatusOK) // 200
		}

		_ = json.NewEncoder(w).Encode(health)
	})
}

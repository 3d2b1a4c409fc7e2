// Package handlers implements the HTTP API: health, version, work list
// management, and batch run start/status.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// HealthChecker reports the health of one subsystem.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// HealthManager aggregates named health checkers.
type HealthManager struct {
	version string

	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

// NewHealthManager creates a manager reporting the given version.
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{version: version, checkers: make(map[string]HealthChecker)}
}

// RegisterChecker adds a named checker.
func (m *HealthManager) RegisterChecker(name string, c HealthChecker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[name] = c
}

// HealthHandler serves GET /health. All checkers healthy yields 200;
// any failure yields 503 with per-check detail.
func (m *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	names := make([]string, 0, len(m.checkers))
	for name := range m.checkers {
		names = append(names, name)
	}
	m.mu.RUnlock()

	resp := HealthResponse{Status: "healthy", Version: m.version, Checks: make(map[string]string)}
	code := http.StatusOK
	for _, name := range names {
		m.mu.RLock()
		checker := m.checkers[name]
		m.mu.RUnlock()

		if err := checker.CheckHealth(r.Context()); err != nil {
			resp.Status = "unhealthy"
			resp.Checks[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "healthy"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// LivenessHandler serves GET /health/live: the process is up.
func (m *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

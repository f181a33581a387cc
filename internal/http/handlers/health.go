package handlers

import (
	"context"
	"net/http"
	"time"

	"hiretrack/internal/http/response"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	checks []HealthCheck
}

func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type checkResult struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	results := make([]checkResult, 0, len(h.checks))
	ok := true
	for _, check := range h.checks {
		start := time.Now()
		err := check.Check(ctx)
		result := checkResult{Name: check.Name, Status: "ok", DurationMs: time.Since(start).Milliseconds()}
		if err != nil {
			ok = false
			result.Status = "fail"
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	if !ok {
		response.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "checks": results})
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"status": "ok", "checks": results})
}

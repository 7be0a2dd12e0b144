package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Checker is a function that checks the health of a dependency.
type Checker func(ctx context.Context) error

// Status represents the health status of a component.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Response is the JSON body of the health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the result of a single health check.
type CheckResult struct {
	Status   Status `json:"status"`
	Critical bool   `json:"critical"`
	Error    string `json:"error,omitempty"`
}

type registration struct {
	check    Checker
	critical bool
}

// Handler serves liveness and readiness endpoints.
type Handler struct {
	mu       sync.RWMutex
	checkers map[string]registration
	timeout  time.Duration
}

// NewHandler creates a health handler with a 5s readiness budget.
func NewHandler() *Handler {
	return &Handler{
		checkers: make(map[string]registration),
		timeout:  5 * time.Second,
	}
}

// RegisterCritical adds a dependency whose failure makes the service not ready.
func (h *Handler) RegisterCritical(name string, check Checker) {
	h.register(name, check, true)
}

// RegisterNonCritical adds a dependency whose failure only degrades the service.
func (h *Handler) RegisterNonCritical(name string, check Checker) {
	h.register(name, check, false)
}

func (h *Handler) register(name string, check Checker, critical bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = registration{check: check, critical: critical}
}

// LivenessHandler reports 200 while the process is running.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, Response{Status: StatusUp, Timestamp: time.Now().UTC()})
	}
}

// ReadinessHandler runs every registered check. Any critical failure yields
// 503; non-critical failures yield 200 with status "degraded".
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		resp := h.Check(ctx)
		status := http.StatusOK
		if resp.Status == StatusDown {
			status = http.StatusServiceUnavailable
		}
		writeResponse(w, status, resp)
	}
}

// Check runs all checks sequentially in name order and aggregates the result.
func (h *Handler) Check(ctx context.Context) Response {
	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	regs := make(map[string]registration, len(h.checkers))
	for name, reg := range h.checkers {
		names = append(names, name)
		regs[name] = reg
	}
	h.mu.RUnlock()
	sort.Strings(names)

	resp := Response{
		Status:    StatusUp,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult, len(names)),
	}

	for _, name := range names {
		reg := regs[name]
		result := CheckResult{Status: StatusUp, Critical: reg.critical}
		if err := reg.check(ctx); err != nil {
			result.Status = StatusDown
			result.Error = err.Error()
			switch {
			case reg.critical:
				resp.Status = StatusDown
			case resp.Status == StatusUp:
				resp.Status = StatusDegraded
			}
		}
		resp.Checks[name] = result
	}

	return resp
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

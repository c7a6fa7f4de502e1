package health

import (
	"encoding/json"
	"net/http"

	"github.com/lewisedginton/health_companion/pkg/logger"
)

// Response is the JSON body served by the probe handlers.
type Response struct {
	Status  string                 `json:"status"`
	Checks  map[string]CheckStatus `json:"checks,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// CheckStatus is the per-check entry of a Response.
type CheckStatus struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

// LivenessHandler serves the liveness report: 200 when healthy, 503 otherwise.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.write(w, c.Liveness(r.Context()))
	}
}

// ReadinessHandler serves the readiness report: 200 when ready, 503 otherwise.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.write(w, c.Readiness(r.Context()))
	}
}

func (c *Checker) write(w http.ResponseWriter, report Report) {
	resp := Response{Status: "healthy", Checks: make(map[string]CheckStatus, len(report.Results))}
	code := http.StatusOK
	if !report.Healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
		if err := report.Err(); err != nil {
			resp.Message = err.Error()
		}
	}
	for _, r := range report.Results {
		cs := CheckStatus{Status: "ok", Latency: r.Latency.String()}
		if !r.Healthy {
			cs.Status = "error"
			cs.Error = r.Error
		}
		resp.Checks[r.Name] = cs
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		c.log.Error("Failed to encode health response", logger.ErrorField(err))
	}
}

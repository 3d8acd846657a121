// Package health serves the readiness endpoint.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/dropDatabas3/openidgate/internal/observability/logger"
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Controller struct {
	version string
	checks  map[string]Pinger
}

func NewController(version string, checks map[string]Pinger) *Controller {
	return &Controller{version: version, checks: checks}
}

type response struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// Healthz handles GET /healthz.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response{Status: "ready", Version: c.version, Components: map[string]string{}}
	names := make([]string, 0, len(c.checks))
	for n := range c.checks {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := c.checks[n].Ping(ctx); err != nil {
			logger.From(ctx).Warn("health check failed", logger.Component(n), logger.Err(err))
			resp.Components[n] = "down"
			resp.Status = "unavailable"
			continue
		}
		resp.Components[n] = "up"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

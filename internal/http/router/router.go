// Package router mounts the HTTP surface on a chi router.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/openidgate/internal/http/controllers/health"
	openidctrl "github.com/dropDatabas3/openidgate/internal/http/controllers/openid"
	httperrors "github.com/dropDatabas3/openidgate/internal/http/errors"
	mw "github.com/dropDatabas3/openidgate/internal/http/middlewares"
	"github.com/dropDatabas3/openidgate/internal/rate"
)

type Deps struct {
	OpenID  *openidctrl.Controller
	Health  *healthctrl.Controller
	Metrics *mw.HTTPMetrics // optional
	// MetricsHandler is mounted on /metrics when not nil
	MetricsHandler http.Handler
	// RateLimiter applies to the auth routes only
	RateLimiter rate.Limiter
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.WithRecover(), mw.WithRequestID())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// health and metrics skip logging (scraped often)
	if d.Health != nil {
		r.Get("/healthz", d.Health.Healthz)
	}
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/v1/auth/openid", func(r chi.Router) {
		r.Use(mw.WithLogging())
		r.Get("/providers", d.OpenID.Providers)
		r.Group(func(r chi.Router) {
			r.Use(mw.WithRateLimit(d.RateLimiter, mw.IPPathRateKey))
			r.Get("/{brokerage}/callback", d.OpenID.Callback)
			r.Post("/{brokerage}/callback", d.OpenID.Callback)
			r.Post("/complete", d.OpenID.Complete)
		})
	})
	return r
}

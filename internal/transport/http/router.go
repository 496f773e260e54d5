// Package httptransport assembles the HTTP surface: middleware stack,
// operational endpoints and the versioned audit API.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ledgerline/internal/audit/handler"
	"ledgerline/pkg/platform/httputil"
	"ledgerline/pkg/platform/middleware/auth"
	"ledgerline/pkg/platform/middleware/device"
	"ledgerline/pkg/platform/middleware/metadata"
	"ledgerline/pkg/platform/middleware/request"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Healthy() bool
}

// alwaysHealthy is used for stores without a connection to probe.
type alwaysHealthy struct{}

func (alwaysHealthy) Healthy() bool { return true }

// Config carries the router's collaborators.
type Config struct {
	Audit     *handler.Handler
	Validator auth.TokenValidator
	Health    HealthChecker
	Logger    *slog.Logger
	Timeout   time.Duration
}

// NewRouter wires middleware, operational endpoints and the audit API.
// Everything under /v1 requires a bearer token; /healthz and /metrics do not.
func NewRouter(cfg Config) http.Handler {
	if cfg.Health == nil {
		cfg.Health = alwaysHealthy{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(nil).Handler)
	r.Use(device.Describe)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.Timeout(cfg.Timeout))
	r.Use(request.ContentTypeJSON)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !cfg.Health.Healthy() {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.Validator, cfg.Logger))
		cfg.Audit.Register(r)
	})

	return r
}

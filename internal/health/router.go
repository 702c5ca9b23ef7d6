package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/diffsolutions/samba-exporters/internal/obs"
)

// RouterConfig groups the dependencies of the operational HTTP server.
type RouterConfig struct {
	Handler  Handler
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// NewRouter serves /healthz, /readyz and /metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(obs.RequestLogger{Logger: cfg.Logger}.Middleware)

	r.Get("/healthz", cfg.Handler.Live)
	r.Get("/readyz", cfg.Handler.Ready)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return otelhttp.NewHandler(r, "ops")
}

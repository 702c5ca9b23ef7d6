package health_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/diffsolutions/samba-exporters/internal/health"
	"github.com/diffsolutions/samba-exporters/internal/obs"
)

type noopChecker struct{}

func (noopChecker) PingDB(context.Context, time.Duration) error    { return nil }
func (noopChecker) PingRedis(context.Context, time.Duration) error { return nil }

func TestRouterReadyzWhileDraining(t *testing.T) {
	router := health.NewRouter(health.RouterConfig{
		Handler:  health.Handler{Checker: noopChecker{}},
		Gatherer: prometheus.NewRegistry(),
		Logger:   zerolog.Nop(),
	})
	t.Cleanup(func() { health.SetReady(true) })

	health.SetReady(false)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code, "liveness ignores draining")

	health.SetReady(true)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterServesOpsEndpoints(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewExportMetrics("samba", registry)
	metrics.ObserveRun("products", obs.ResultSuccess, time.Second)

	router := health.NewRouter(health.RouterConfig{
		Handler:  health.Handler{Checker: noopChecker{}},
		Gatherer: registry,
		Logger:   zerolog.Nop(),
	})

	for path, want := range map[string]int{
		"/healthz": http.StatusOK,
		"/readyz":  http.StatusOK,
		"/metrics": http.StatusOK,
		"/nope":    http.StatusNotFound,
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, want, rr.Code, path)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, rr.Body.String(), `samba_export_runs_total{feed="products",result="success"} 1`)
}

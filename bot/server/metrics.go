package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/metrics"
	"github.com/tenmans/tenmans/pkg/redis"
	"github.com/tenmans/tenmans/pkg/storage"
)

const readyTimeout = 2 * time.Second

// Pinger is anything the readiness check depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter serves liveness, readiness over every dependency, and the prometheus registry.
func NewRouter(registry *prometheus.Registry, deps map[string]Pinger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.HandleFunc("/ready", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), readyTimeout)
		defer cancel()
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				log.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
				http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

func PrometheusMetricsServer(driver *redis.Driver, psql *storage.PsqlInterface, nodeID, port string) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(driver.Client(), nodeID))

	router := NewRouter(registry, map[string]Pinger{
		"redis":    driver,
		"postgres": psql,
	})
	log.Info().Str("port", port).Msg("serving metrics")
	return http.ListenAndServe(":"+port, router)
}

// internal/server/router.go
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"riigikogu-radar/internal/common/logger"
	"riigikogu-radar/internal/simulation"
)

// NewRouter wires the HTTP surface: the simulation job API, health and
// Prometheus metrics.
func NewRouter(manager *simulation.Manager, db, redis Pinger, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	simulateHandler := NewSimulateHandler(manager, log)
	healthHandler := NewHealthHandler(db, redis)

	mux.HandleFunc("POST /simulate", withLogging(log, simulateHandler.Create))
	mux.HandleFunc("GET /simulate/{id}", withLogging(log, simulateHandler.GetStatus))

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

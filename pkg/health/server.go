// Package health exposes the worker's liveness/readiness/status/metrics
// HTTP surface, using plain net/http and http.HandleFunc as the teacher's
// health server does — no router framework.
package health

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/speedrun-hq/settlement-worker/pkg/breaker"
	"github.com/speedrun-hq/settlement-worker/pkg/nonce"
	"github.com/speedrun-hq/settlement-worker/pkg/queue"
	"github.com/speedrun-hq/settlement-worker/pkg/registry"
)

// ChainPinger is the minimal readiness signal the health server needs from
// the chain client.
type ChainPinger interface {
	Connected() bool
}

// Server is the health/readiness/status/metrics HTTP server.
type Server struct {
	port       string
	metricsKey string

	chain    ChainPinger
	queue    *queue.Queue
	registry *registry.Registry
	nonce    *nonce.Coordinator
	breaker  *breaker.Breaker

	workerCount int
}

// NewServer wires the server to the live pipeline components it reports
// on.
func NewServer(port, metricsKey string, chain ChainPinger, q *queue.Queue, r *registry.Registry, n *nonce.Coordinator, b *breaker.Breaker, workerCount int) *Server {
	return &Server{
		port:        port,
		metricsKey:  metricsKey,
		chain:       chain,
		queue:       q,
		registry:    r,
		nonce:       n,
		breaker:     b,
		workerCount: workerCount,
	}
}

func (s *Server) metricsAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metricsKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		if parts[1] != s.metricsKey {
			http.Error(w, "invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// mux builds the server's handler so it can be exercised directly in
// tests without binding a real port.
func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if s.chain == nil || !s.chain.Connected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("chain client not connected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ready"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		open, failureCount, _ := s.breaker.State()
		status := map[string]interface{}{
			"nonce":          s.nonce.Current(),
			"queue_depth":    s.queue.Depth(),
			"in_flight":      s.registry.Len(),
			"worker_count":   s.workerCount,
			"breaker_open":   open,
			"breaker_failures": failureCount,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("error encoding status JSON: %v", err)
		}
	})

	mux.HandleFunc("/circuit/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.breaker.Reset()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("circuit breaker reset"))
	})

	mux.Handle("/metrics", s.metricsAuthMiddleware(promhttp.Handler()))

	return mux
}

// Start blocks, serving the health/metrics surface on the configured port.
func (s *Server) Start() error {
	log.Printf("starting health and metrics server on port %s", s.port)
	return http.ListenAndServe(fmt.Sprintf(":%s", s.port), s.mux())
}

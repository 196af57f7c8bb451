// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"foyer/internal/cache"
	"foyer/internal/middleware/ratelimit"
	"foyer/internal/middleware/trace"
	"foyer/internal/services"
)

type Server struct {
	http.Server

	balances     *services.BalanceService
	projections  *services.ProjectionService
	transactions *services.TransactionService

	rateLimiter *ratelimit.Limiter
	seriesCache *cache.LRUCache[services.BalanceSeries]

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, balances *services.BalanceService, projections *services.ProjectionService, transactions *services.TransactionService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		balances:     balances,
		projections:  projections,
		transactions: transactions,
		rateLimiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		seriesCache:  cache.NewLRUCache[services.BalanceSeries](100, 5*time.Minute),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /api/accounts/{id}/balance-series", s.handleBalanceSeries)
	mux.HandleFunc("GET /api/households/{id}/transactions", s.handleHouseholdTransactions)
	mux.Handle("POST /api/transactions",
		s.rateLimiter.Middleware(clientIP)(http.HandlerFunc(s.handleCreateTransaction)))
	mux.Handle("POST /api/transfers",
		s.rateLimiter.Middleware(clientIP)(http.HandlerFunc(s.handleCreateTransfer)))

	tracer := trace.NewMiddleware(clientIP)
	s.Server = http.Server{
		Addr:         addr,
		Handler:      tracer.Middleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware, for tests.
func (s *Server) Handler() http.Handler {
	return s.Server.Handler
}

// Shutdown stops background cleanup goroutines and drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// RegisterCache adds the series cache to a cleanup manager.
func (s *Server) RegisterCache(m *cache.Manager) {
	m.Register(s.seriesCache)
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if i := strings.IndexByte(ip, ','); i >= 0 {
			return strings.TrimSpace(ip[:i])
		}
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

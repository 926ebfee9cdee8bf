// internal/server/server.go
//
// Package server exposes the trip planner over HTTP: the stateless engine
// endpoints, the session-based planning flow, and travel search.
package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/EGDongAn/trip-planner-ai/internal/common/config"
	"github.com/EGDongAn/trip-planner-ai/internal/common/logger"
	"github.com/EGDongAn/trip-planner-ai/internal/common/metrics"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/engine"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/session"
	"github.com/EGDongAn/trip-planner-ai/internal/travel"
)

// Server wires handlers, middleware, and the underlying http.Server.
type Server struct {
	cfg        config.ServerConfig
	engine     *engine.Engine
	controller *session.Controller
	sessions   *session.Store
	travel     *travel.Service
	logger     logger.Logger
	httpServer *http.Server
	limiter    *clientLimiter
}

func New(cfg config.ServerConfig, eng *engine.Engine, ctrl *session.Controller, store *session.Store, travelSvc *travel.Service, log logger.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		engine:     eng,
		controller: ctrl,
		sessions:   store,
		travel:     travelSvc,
		logger:     log,
		limiter:    newClientLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}

	router := httprouter.New()

	// Stateless engine access
	router.POST("/api/trip/generate", s.instrument("/api/trip/generate", s.handleGenerate))
	router.POST("/api/trip/refine", s.instrument("/api/trip/refine", s.handleRefine))

	// Session-based planning flow
	router.GET("/api/sessions/:id", s.instrument("/api/sessions/:id", s.handleGetSession))
	router.POST("/api/sessions/:id/start", s.instrument("/api/sessions/:id/start", s.handleStartPlanning))
	router.POST("/api/sessions/:id/destination", s.instrument("/api/sessions/:id/destination", s.handleSelectDestination))
	router.POST("/api/sessions/:id/plan", s.instrument("/api/sessions/:id/plan", s.handleSelectPlan))
	router.POST("/api/sessions/:id/refine", s.instrument("/api/sessions/:id/refine", s.handleSessionRefine))
	router.POST("/api/sessions/:id/reset", s.instrument("/api/sessions/:id/reset", s.handleReset))
	router.PATCH("/api/sessions/:id/metadata", s.instrument("/api/sessions/:id/metadata", s.handleUpdateMetadata))

	// Travel search
	router.POST("/api/travel/flights", s.instrument("/api/travel/flights", s.handleSearchFlights))
	router.POST("/api/travel/hotels", s.instrument("/api/travel/hotels", s.handleSearchHotels))

	router.HandlerFunc(http.MethodGet, "/healthz", s.handleHealth)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      corsHandler.Handler(s.rateLimit(router)),
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}

	return s
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("http server starting", map[string]interface{}{
		"address": s.cfg.Address,
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.close()
	return s.httpServer.Shutdown(ctx)
}

// instrument wraps a handler with per-route request metrics.
func (s *Server) instrument(route string, h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r, ps)
		metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// clientLimiter keeps a token bucket per client IP. Idle buckets are
// discarded after a few minutes.
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	limit   rate.Limit
	burst   int
	stop    chan struct{}
	once    sync.Once
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(limit rate.Limit, burst int) *clientLimiter {
	cl := &clientLimiter{
		clients: make(map[string]*clientBucket),
		limit:   limit,
		burst:   burst,
		stop:    make(chan struct{}),
	}
	go cl.cleanup()
	return cl
}

func (cl *clientLimiter) allow(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	b, ok := cl.clients[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.clients[ip] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

func (cl *clientLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-cl.stop:
			return
		case <-ticker.C:
			cl.mu.Lock()
			for ip, b := range cl.clients {
				if time.Since(b.lastSeen) > 3*time.Minute {
					delete(cl.clients, ip)
				}
			}
			cl.mu.Unlock()
		}
	}
}

func (cl *clientLimiter) close() {
	cl.once.Do(func() { close(cl.stop) })
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !s.limiter.allow(ip) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

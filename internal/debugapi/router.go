// Package debugapi serves the localhost-only debug endpoints: Prometheus
// metrics, a health check and JSON dumps of engine and world stats.
package debugapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/flatcollision/flatcollision/internal/physics"
	"github.com/flatcollision/flatcollision/internal/sim"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig wires the router to the running host.
type RouterConfig struct {
	Registry   *physics.Registry
	Simulation *sim.Simulation // optional
	Gatherer   prometheus.Gatherer
	Log        *zap.Logger
}

type routerHandlers struct {
	registry *physics.Registry
	sim      *sim.Simulation
}

// NewRouter builds the debug router. It does not start a listener, so it can
// be mounted on httptest.NewServer in tests.
func NewRouter(cfg RouterConfig) *chi.Mux {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	h := &routerHandlers{registry: cfg.Registry, sim: cfg.Simulation}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", h.handleHealth)

	r.Route("/debug", func(r chi.Router) {
		r.Get("/engines", h.handleEngines)
		r.Get("/engines/{world}", h.handleEngine)
		r.Get("/worlds", h.handleWorlds)
	})
	return r
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *routerHandlers) handleEngines(w http.ResponseWriter, _ *http.Request) {
	stats := make([]physics.EngineStats, 0, h.registry.Len())
	h.registry.Each(func(e *physics.Engine) {
		stats = append(stats, e.Stats())
	})
	writeJSON(w, http.StatusOK, stats)
}

func (h *routerHandlers) handleEngine(w http.ResponseWriter, r *http.Request) {
	world := physics.WorldID(chi.URLParam(r, "world"))
	e := h.registry.Get(world)
	if e == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown world"})
		return
	}
	writeJSON(w, http.StatusOK, e.Stats())
}

func (h *routerHandlers) handleWorlds(w http.ResponseWriter, _ *http.Request) {
	if h.sim == nil {
		writeJSON(w, http.StatusOK, []sim.WorldStats{})
		return
	}
	writeJSON(w, http.StatusOK, h.sim.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("debug request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}

// Server runs the debug router on a TCP address.
type Server struct {
	srv *http.Server
	log *zap.Logger
}

func NewServer(addr string, handler http.Handler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start listens in the background. Listener errors are logged.
func (s *Server) Start() {
	go func() {
		s.log.Info("debug server starting", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("debug server error", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

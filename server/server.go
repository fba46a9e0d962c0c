package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/boyangli/sentinelmap-dashboard/config"
	"github.com/boyangli/sentinelmap-dashboard/metrics"
	"github.com/boyangli/sentinelmap-dashboard/session"
)

// Server is the dashboard's HTTP surface
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer wires the session commands onto HTTP routes. Image references
// produced by the predictor resolve under /images/ when imageDir is set.
func NewServer(cfg config.ServerConfig, sess *session.Session, imageDir string) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(countRequests)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CorsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	h := NewDashboardHandler(sess)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Route("/v1", func(r chi.Router) {
			r.Get("/view", h.GetView)
			r.Get("/detections", h.GetDetections)

			r.Post("/date", h.SelectDate)
			r.Post("/date/next", h.AdvanceDate)
			r.Post("/date/prev", h.RetreatDate)

			r.Post("/run", h.Run)
			r.Post("/select", h.SelectPoint)
			r.Post("/ais", h.ToggleAIS)
		})
	})

	router.Handle("/metrics", promhttp.Handler())

	if imageDir != "" {
		router.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(imageDir))))
	}

	return &Server{
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		router: router,
	}
}

// Handler exposes the router (used by tests)
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// countRequests records request totals by route pattern and status code
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

// Package server exposes voice sessions over HTTP for a browser front end
// that does its own speech recognition and synthesis.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

// PaymentSimulator completes an order the way the payment widget would.
type PaymentSimulator interface {
	Complete(orderID string) model.PaymentData
}

type Server struct {
	router   *chi.Mux
	registry *Registry
	payments PaymentSimulator
}

type Option func(*Server)

// WithPaymentSimulator lets success callbacks omit the payment details.
func WithPaymentSimulator(p PaymentSimulator) Option {
	return func(s *Server) {
		s.payments = p
	}
}

func New(registry *Registry, cfg model.HTTPConfig, opts ...Option) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		registry: registry,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware(cfg)
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware(cfg model.HTTPConfig) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthHandler)

	s.router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.createSessionHandler)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/turns", s.turnHandler)
			r.Post("/payment", s.paymentHandler)
			r.Get("/history", s.historyHandler)
			r.Get("/transcript", s.transcriptHandler)
			r.Delete("/", s.deleteSessionHandler)
		})
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logx.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

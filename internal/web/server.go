// Package web serves the brief dashboard and the subscription API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ternarybob/arbor"

	"github.com/ryosukesatoh/daily-brief/internal/publisher"
	"github.com/ryosukesatoh/daily-brief/internal/report"
)

// Store is the subset of store.Store the dashboard reads and writes.
type Store interface {
	Subscribe(ctx context.Context, email string, lang report.Language) error
	Unsubscribe(ctx context.Context, email string) error
	LatestDailyReport(ctx context.Context) (*report.Daily, error)
	ListIndividualReports(ctx context.Context, limit int) ([]report.Individual, error)
	LatestExchangeRate(ctx context.Context) (*report.ExchangeRate, error)
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Server serves the latest brief as an HTML page and a small JSON API.
type Server struct {
	addr    string
	server  *http.Server
	store   Store
	alerter publisher.Alerter
	logger  arbor.ILogger
}

// NewServer builds the dashboard. New subscriptions are reported through
// alerter.
func NewServer(addr string, st Store, alerter publisher.Alerter, logger arbor.ILogger) *Server {
	s := &Server{addr: addr, store: st, alerter: alerter, logger: logger}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(s.requestLogger)
		r.Use(middleware.Recoverer)
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/", s.handleIndex)
		r.Route("/api", func(r chi.Router) {
			r.Get("/reports", s.handleListReports)
			r.Get("/reports/latest", s.handleLatestReport)
			r.Get("/rates/latest", s.handleLatestRate)
			r.Post("/subscribe", s.handleSubscribe)
			r.Post("/unsubscribe", s.handleUnsubscribe)
		})
	})
	return r
}

// Start begins serving HTTP in the background. Call Shutdown to stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", s.addr, err)
	}
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("Dashboard listening")
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Dashboard server error")
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	})
}

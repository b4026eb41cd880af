package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"vrlounge/internal/payroll"
	"vrlounge/internal/pricing"
	"vrlounge/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Reports computes the figures served by the API.
type Reports interface {
	Monthly(ctx context.Context, p report.Period) (*payroll.Monthly, error)
	Weekly(ctx context.Context, p report.Period) (*payroll.Weekly, error)
	Day(ctx context.Context, p report.Period) (*report.DayReport, error)
	Prices() *pricing.Table
	Invalidate(ctx context.Context) error
}

// Check is a named readiness probe, e.g. the database or the cache.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Server is the reporting API. With an Ingest it also accepts bookings,
// staffing and roster changes.
type Server struct {
	reports Reports
	checks  []Check
	ingest  *Ingest
	logger  *zerolog.Logger
	router  chi.Router
}

// NewServer builds the router. ingest may be nil for a read-only API.
func NewServer(reports Reports, checks []Check, ingest *Ingest, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "api").Logger()
	s := &Server{reports: reports, checks: checks, ingest: ingest, logger: &l}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the handler for the given port.
func (s *Server) HTTPServer(port int) *http.Server {
	return &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.CleanPath)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/revenue/day", s.handleDay)
		r.Route("/payroll", func(r chi.Router) {
			r.Get("/monthly", s.handleMonthly)
			r.Get("/weekly", s.handleWeekly)
		})
		if s.ingest != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.requireAPIKey)
				r.Post("/bookings", s.handleCreateBooking)
				r.Put("/bookings/{id}", s.handleUpdateBooking)
				r.Get("/assignments/{date}", s.handleGetAssignment)
				r.Put("/assignments/{date}", s.handleSaveAssignment)
				r.Put("/admins/{id}", s.handleSaveAdmin)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// requestLogger puts a request-scoped logger into the context and logs the outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		l := s.logger.With().Str("request_id", requestID).Logger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(l.WithContext(r.Context())))

		l.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

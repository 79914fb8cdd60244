package uiapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/awaistahir/octotrmnl/internal/logger"
	"github.com/awaistahir/octotrmnl/internal/metrics"
	"github.com/awaistahir/octotrmnl/internal/report"
	"github.com/awaistahir/octotrmnl/internal/upstream"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// ReportBuilder is implemented by *report.Aggregator
type ReportBuilder interface {
	Build(ctx context.Context) (*report.Report, error)
}

type Server struct {
	reports ReportBuilder
	metrics *metrics.Metrics
	started time.Time
	now     func() time.Time

	Version string

	mu          sync.Mutex
	lastSuccess time.Time
	lastError   string
}

func NewServer(reports ReportBuilder, m *metrics.Metrics) *Server {
	return &Server{
		reports: reports,
		metrics: m,
		started: time.Now(),
		now:     time.Now,
		Version: "dev",
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for the display poller; anything but GET is refused
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			switch r.Method {
			case http.MethodOptions:
				w.WriteHeader(http.StatusOK)
				return
			case http.MethodGet:
				next.ServeHTTP(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
	})

	reportHandler := s.metrics.WrapHandler("/api/report", http.HandlerFunc(s.handleReport))
	r.Method(http.MethodGet, "/", reportHandler)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/report", reportHandler)
		r.Method(http.MethodGet, "/status", s.metrics.WrapHandler("/api/status", http.HandlerFunc(s.handleStatus)))
	})

	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Build(r.Context())
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()

		logger.Error("report request failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		respondError(w, statusFor(err), err.Error(), s.now())
		return
	}

	s.mu.Lock()
	s.lastSuccess = s.now()
	s.lastError = ""
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	lastSuccess, lastError := s.lastSuccess, s.lastError
	s.mu.Unlock()

	status := map[string]interface{}{
		"status":         "ok",
		"version":        s.Version,
		"uptime_seconds": int64(s.now().Sub(s.started).Seconds()),
		"last_success":   nil,
		"last_error":     nil,
	}
	if !lastSuccess.IsZero() {
		status["last_success"] = lastSuccess.UTC().Format(timestampLayout)
	}
	if lastError != "" {
		status["last_error"] = lastError
	}

	respondJSON(w, http.StatusOK, status)
}

// statusFor maps a build failure to the response status: 502 when an
// upstream API answered with an error, 504 when it did not answer in time.
func statusFor(err error) int {
	var statusErr *upstream.StatusError
	switch {
	case errors.As(err, &statusErr):
		return http.StatusBadGateway
	case errors.Is(err, upstream.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, at time.Time) {
	respondJSON(w, status, map[string]string{
		"error":     message,
		"timestamp": at.UTC().Format(timestampLayout),
	})
}

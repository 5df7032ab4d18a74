package server

import (
	"log/slog"
	"net/http"

	"fraud-console/internal/handlers"
	"fraud-console/internal/services"
	"fraud-console/internal/ui/static"
)

type Server struct {
	sessions    *services.SessionStore
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

// TemplateHandlers render the full pages. They are supplied by the caller
// so page rendering can carry its own timeout and caching policy.
type TemplateHandlers struct {
	Dashboard   http.HandlerFunc
	Scorer      http.HandlerFunc
	Experiments http.HandlerFunc
	Ingestion   http.HandlerFunc
}

type Options struct {
	UpstreamURL   string
	MaxUploadSize int64
}

func NewServer(sessions *services.SessionStore, logger *slog.Logger, templateHandlers *TemplateHandlers, opts Options) *Server {
	s := &Server{
		sessions:    sessions,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(sessions, opts.UpstreamURL, logger),
		sseHandlers: handlers.NewSSEHandlers(logger, opts.MaxUploadSize),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Pages
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /scorer", templateHandlers.Scorer)
	s.mux.HandleFunc("GET /experiments", templateHandlers.Experiments)
	s.mux.HandleFunc("GET /ingestion", templateHandlers.Ingestion)
	s.mux.Handle("GET /static/", static.Handler())

	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("GET /api/dashboard", s.apiHandlers.HandleDashboard)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/dashboard/refresh", s.sseHandlers.HandleDashboardRefresh)

	s.mux.HandleFunc("POST /sse/score", s.sseHandlers.HandleScore)
	s.mux.HandleFunc("POST /sse/score/retry", s.sseHandlers.HandleScoreRetry)
	s.mux.HandleFunc("POST /sse/score/random", s.sseHandlers.HandleRandomTransaction)
	s.mux.HandleFunc("POST /sse/score/reset", s.sseHandlers.HandleScoreReset)
	s.mux.HandleFunc("POST /sse/batch", s.sseHandlers.HandleBatch)

	s.mux.HandleFunc("POST /sse/experiments", s.sseHandlers.HandleCreateABTest)
	s.mux.HandleFunc("GET /sse/experiments/{id}/results", s.sseHandlers.HandleABTestResults)
	s.mux.HandleFunc("POST /sse/experiments/payment", s.sseHandlers.HandleProcessPayment)

	s.mux.HandleFunc("POST /sse/ingest/upload", s.sseHandlers.HandleUpload)
	s.mux.HandleFunc("POST /sse/ingest/etl", s.sseHandlers.HandleRunETL)
	s.mux.HandleFunc("POST /sse/ingest/webhook", s.sseHandlers.HandleWebhook)
	s.mux.HandleFunc("POST /sse/ingest/poll/{provider}", s.sseHandlers.HandlePoll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

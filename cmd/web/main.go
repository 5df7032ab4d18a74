package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"

	"fraud-console/internal/config"
	"fraud-console/internal/gateway"
	"fraud-console/internal/middleware"
	"fraud-console/internal/observability"
	"fraud-console/internal/server"
	"fraud-console/internal/services"
	"fraud-console/internal/ui/templates"
)

const (
	renderTimeout      = 10 * time.Second
	sessionSweepPeriod = 5 * time.Minute
	limiterSweepPeriod = time.Minute
)

// page renders the component built from the caller's session.
func page(build func(sess *services.Session) templ.Component) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := services.SessionFrom(r.Context())
		if !ok {
			http.Error(w, "no session", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := build(sess).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

var templateHandlers = &server.TemplateHandlers{
	Dashboard: page(func(s *services.Session) templ.Component {
		return templates.Dashboard(s.Dashboard.State())
	}),
	Scorer: page(func(s *services.Session) templ.Component {
		return templates.Scorer(s.Scorer.State(), s.Batch.State())
	}),
	Experiments: page(func(s *services.Session) templ.Component {
		return templates.Experiments(s.Experiments.State())
	}),
	Ingestion: page(func(s *services.Session) templ.Component {
		return templates.Ingestion(s.Ingestion.State())
	}),
}

// newHandler assembles routes and the middleware chain around them.
func newHandler(cfg *config.Config, logger *slog.Logger, sessions *services.SessionStore, limiter *middleware.RateLimiter) http.Handler {
	srv := server.NewServer(sessions, logger, templateHandlers, server.Options{
		UpstreamURL:   cfg.Upstream.BaseURL,
		MaxUploadSize: cfg.Upstream.MaxUploadSize,
	})

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.SameOrigin(cfg.Security, logger),
		middleware.Session(sessions, cfg.Session),
		middleware.Logger(logger),
		middleware.Tracing(),
	)

	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting fraud console",
		"version", "1.0.0",
		"upstream", cfg.Upstream.BaseURL,
		"addr", cfg.Address(),
	)

	client := gateway.New(cfg.Upstream, logger)
	sessions := services.NewSessionStore(client, cfg.Upstream.ProviderID, cfg.Session.TTL, services.Options{Logger: logger})
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, logger, sessions, rateLimiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterWorker(func(ctx context.Context) {
		sessions.Run(ctx, sessionSweepPeriod)
	})
	gracefulServer.RegisterWorker(func(ctx context.Context) {
		ticker := time.NewTicker(limiterSweepPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rateLimiter.Cleanup()
			}
		}
	})
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("dropping sessions", "count", sessions.Len())
		return nil
	})

	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}

package chi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-shield/config"
	"github.com/marcelsud/webhook-shield/metrics"
	"github.com/marcelsud/webhook-shield/webhook"
	"github.com/rs/zerolog"
)

const (
	defaultMaxBodyBytes = 1 << 20
)

// Options configures the HTTP surface
type Options struct {
	// BaseURL prefixes protected URLs; empty means derive it from the request
	BaseURL string

	// Logger defaults to a JSON httplog logger
	Logger *zerolog.Logger

	// Metrics defaults to metrics.Nop
	Metrics metrics.Recorder

	// MetricsHandler is mounted on GET /metrics when set
	MetricsHandler http.Handler

	MaxBodyBytes int64
}

// Handlers sets up the protect and forward routes
func Handlers(ctx context.Context, webhookService webhook.UseCase, opts Options) *chi.Mux {
	logger := httplog.NewLogger("webhook-shield", httplog.Options{
		JSON: true,
	})
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(config.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(middleware.RequestSize(opts.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Handle("/protect", protect(webhookService, opts))
	r.Handle(webhook.PathPrefix+"{id}", forward(webhookService, opts))

	return r
}

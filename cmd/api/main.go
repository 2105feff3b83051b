package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-shield/config"
	"github.com/marcelsud/webhook-shield/internal/bootstrap"
	"github.com/marcelsud/webhook-shield/internal/http/chi"
	"github.com/marcelsud/webhook-shield/metrics"
)

const TIMEOUT = 30 * time.Second

/* main wires config, store, service and the HTTP surface
 * Imports only flow downwards: cmd -> internal -> webhook -> drivers
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println(err)
		return
	}

	logger := httplog.NewLogger("webhook-shield", httplog.Options{
		JSON: true,
	})

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	repo, err := bootstrap.NewRepository(ctx, cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer repo.Close(ctx)

	s, err := bootstrap.NewService(cfg, repo, logger)
	if err != nil {
		fmt.Println(err)
		return
	}

	opts := chi.Options{
		BaseURL:      cfg.PublicBaseURL,
		Logger:       &logger,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
	if cfg.MetricsEnabled {
		exporter, err := metrics.NewOTelExporter(repo)
		if err != nil {
			fmt.Println(err)
			return
		}
		defer exporter.Shutdown(context.Background())
		opts.Metrics = exporter
		opts.MetricsHandler = exporter.ServeHTTP()
	}

	r := chi.Handlers(ctx, s, opts)
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().
		Str("port", cfg.Port).
		Str("store", cfg.StoreDriver).
		Str("cipher", cfg.Algorithm().String()).
		Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	default:
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
	}
}

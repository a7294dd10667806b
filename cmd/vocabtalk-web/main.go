// Command vocabtalk-web serves the vocabulary trainer to a browser frontend.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"vocabtalk/internal/bootstrap"
	"vocabtalk/internal/config"
	"vocabtalk/internal/logging"
	"vocabtalk/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	hub := web.NewHub(logger, cfg.Web.AllowedOrigins)

	services, err := bootstrap.Assemble(cfg, logger, hub)
	if err != nil {
		logger.Fatal("failed to assemble services", zap.Error(err))
	}
	defer services.Close()

	if err := services.WatchRules(ctx); err != nil {
		logger.Warn("transcript rules will not be reloaded", zap.Error(err))
	}

	handler := web.NewRouter(web.Dependencies{
		Translation:    services.Translation,
		Vocabulary:     services.Vocabulary,
		Conversation:   services.Conversation,
		Health:         services.Client,
		Events:         hub,
		Metrics:        services.Metrics.Handler(),
		Logger:         logger,
		AllowedOrigins: cfg.Web.AllowedOrigins,
	})

	// Stopping a capture waits for transcription and the settle delay, so
	// writes get a generous deadline.
	srv := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting web server",
			zap.String("address", cfg.Web.Addr),
			zap.String("backend", services.Client.BaseURL()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("web server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down web server")

	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("web server shutdown failed", zap.Error(err))
	}
}

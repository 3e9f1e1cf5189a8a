package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-qa-go/internal/app"
	"voice-qa-go/internal/config"
	"voice-qa-go/internal/history"
	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("VOICEQA_CONFIG"))
	if err != nil {
		logger.New().WithError(err).Fatal("failed to load config")
	}
	log := cfg.Logger()
	log.WithField("service", "voice-qa-go").Info("starting service")

	a, closeApp, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build pipeline")
	}
	defer func() { _ = closeApp() }()

	var runs server.RunStore
	if store, ok := a.History.(*history.Store); ok {
		runs = store
	}
	srv := server.New(a, runs, time.Duration(cfg.Server.TimeoutSeconds)*time.Second, log.WithComponent("server"))
	if err := srv.ListenAndServe(ctx, envOr("PORT", cfg.Server.Addr)); err != nil {
		log.WithError(err).Error("server terminated")
		stop()
		os.Exit(1)
	}
}

// envOr keeps the PORT convention of container platforms.
func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return ":" + v
	}
	return def
}

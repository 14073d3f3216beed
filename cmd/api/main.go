package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"videogen/internal/bootstrap"
	"videogen/internal/http/handlers"
	httpapi "videogen/internal/http/httpapi"
	"videogen/internal/infra"
)

const (
	progressSweepInterval = time.Minute
	shutdownTimeout       = 30 * time.Second
)

func main() {
	// Load .env when present
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.New(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise generation service")
	}
	defer svc.Close()

	app := handlers.NewApp(svc.Orchestrator, svc.Tracker, svc.Repo, &logger)
	app.StoreDriver = cfg.StoreDriver
	app.AudioStrategy = cfg.AudioStrategy
	app.BaseContext = ctx

	router := httpapi.NewRouter(app, httpapi.Options{
		FrontendOrigins: cfg.FrontendOrigins,
		VideosDir:       cfg.VideosDir,
		VideoBaseURL:    cfg.VideoBaseURL,
		RateLimitPerMin: cfg.RateLimitPerMin,
		TrustProxy:      cfg.TrustProxy,
		Logger:          logger,
	})
	server := infra.NewHTTPServer(cfg, router, ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("port", cfg.Port).
			Str("store", cfg.StoreDriver).
			Str("audio_strategy", cfg.AudioStrategy).
			Msg("API listening")
		return server.Start()
	})
	g.Go(func() error {
		return svc.Tracker.Run(gctx, progressSweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server")
		}
		if err := app.Wait(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("in-flight generations did not finish before shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}
	logger.Info().Msg("server stopped")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mamorett/comfyprompt-dataset/internal/config"
	"github.com/mamorett/comfyprompt-dataset/internal/dataset"
	"github.com/mamorett/comfyprompt-dataset/internal/handlers"
	"github.com/mamorett/comfyprompt-dataset/internal/jobs"
	"github.com/mamorett/comfyprompt-dataset/internal/log"
	"github.com/mamorett/comfyprompt-dataset/internal/media"
	"github.com/mamorett/comfyprompt-dataset/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	thumbCache, err := media.NewCache(cfg.Thumbnail.CacheSize, cfg.Thumbnail.MaxWidth, cfg.Thumbnail.MaxHeight)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init thumbnail cache")
	}

	state := dataset.New(cfg.Dataset, thumbCache, logger)

	if cfg.Dataset.CreateMissing {
		if err := state.EnsureRoot(); err != nil {
			logger.Warn().Err(err).Str("root", cfg.Dataset.Root).Msg("could not create dataset root")
		}
	}

	loadManifest(logger, state, cfg.Manifest.DefaultPath)

	handlerSet := handlers.NewHandlerSet(logger, state, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(cfg, state, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, state, cfg)
}

func loadManifest(logger zerolog.Logger, state *dataset.State, path string) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("could not read manifest")
		}
		return
	}

	report := state.MergeManifest(string(data))
	logger.Info().
		Str("path", path).
		Int("added", report.Added).
		Int("failed", report.Failed).
		Msg("manifest loaded at startup")
}

func saveManifest(logger zerolog.Logger, state *dataset.State, path string) {
	if path == "" || state.Len() == 0 {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("could not write manifest")
		return
	}
	defer f.Close()

	if err := state.WriteManifest(f, nil); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("manifest save failed")
		return
	}
	logger.Info().Str("path", path).Int("records", state.Len()).Msg("manifest saved")
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, state *dataset.State, cfg *config.AppConfig) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()

	saveManifest(logger, state, cfg.Manifest.DefaultPath)

	logger.Info().Msg("server exited cleanly")
}

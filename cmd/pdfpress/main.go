package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/wb-go/wbf/zlog"

	compresshandler "pdfpress/internal/api/handlers/compress"
	"pdfpress/internal/api/router"
	"pdfpress/internal/api/server"
	"pdfpress/internal/compression"
	"pdfpress/internal/concurrency"
	"pdfpress/internal/config"
	"pdfpress/internal/database"
	"pdfpress/internal/ghostscript"
	"pdfpress/internal/pipeline"
	"pdfpress/internal/policy"
	compsvc "pdfpress/internal/service/compress"
)

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad("./config")

	// Resolve the Ghostscript binary. Startup proceeds even when absent:
	// every upload is gated and the status endpoint carries install guidance.
	locator := ghostscript.NewLocator(ghostscript.WithBinaryOverride(cfg.Ghostscript.Binary))
	binPath, ok := locator.Locate()
	if ok {
		zlog.Logger.Info().Str("path", binPath).Msg("ghostscript resolved")
	} else {
		zlog.Logger.Warn().
			Str("install_hint", ghostscript.InstallHint(runtime.GOOS)).
			Msg("ghostscript not found; uploads will be rejected until it is installed")
	}

	// Job history storage.
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to open database")
	}

	// Upload restriction window.
	hour, minute, err := policy.ParseClockTime(cfg.Policy.RestrictedAt)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("invalid restricted_at in config")
	}
	window := policy.NewWindow(nil, hour, minute, cfg.Policy.Enabled)

	// Compression pipeline with bounded subprocess concurrency.
	compressor := compression.NewCompressor(binPath, cfg.Ghostscript.Timeout)
	pipe := pipeline.New(compressor, cfg.Pipeline.TempDir, nil)
	limiter := concurrency.NewLimiter(cfg.Pipeline.Workers)

	service := compsvc.NewService(locator, window, limiter, pipe, db, cfg.Upload.MaxBytes)
	handler := compresshandler.NewHandler(service, cfg.Upload.MaxBytes)

	// Start HTTP server in a separate goroutine.
	r := router.Setup(handler)
	s := server.New(":"+cfg.Server.HTTPPort, r)
	go func() {
		zlog.Logger.Info().Str("addr", s.Addr).Msg("starting server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
}

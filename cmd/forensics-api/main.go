package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docforensics/forensics-api/internal/forensics/handler"
	"github.com/docforensics/forensics-api/internal/forensics/service"
	"github.com/docforensics/forensics-api/internal/forensics/storage"
	"github.com/docforensics/forensics-api/pkg/config"
	"github.com/docforensics/forensics-api/pkg/logger"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("forensics-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("forensics-api", cfg.Server.Environment)
	log.Info().Msg("starting Document Forensics API")
	if config.IsProductionLike(cfg.Server.Environment) && cfg.CORS.AllowsAnyOrigin() {
		log.Warn().Msg("CORS allows any origin with credentials; set FORENSICS_CORS_ALLOWED_ORIGINS")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Staged uploads, swept when a request dies without releasing its file
	files, err := storage.NewTempFiles(cfg.Upload.TempDir, cfg.Upload.OrphanTTL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare upload directory")
	}
	files.Start(ctx)

	svc := service.NewService(files, service.DefaultAnalyzers, log)
	h := handler.NewHandler(svc, cfg, log)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, cfg, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().
			Str("addr", addr).
			Str("upload_dir", files.Dir()).
			Int64("max_upload", cfg.Upload.MaxSize).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop the orphan sweep
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

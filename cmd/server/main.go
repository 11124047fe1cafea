package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/litigation-tracker/internal/api"
	"github.com/rongwang/litigation-tracker/internal/blob"
	"github.com/rongwang/litigation-tracker/internal/config"
	"github.com/rongwang/litigation-tracker/internal/importer"
	"github.com/rongwang/litigation-tracker/internal/metrics"
	"github.com/rongwang/litigation-tracker/internal/repository"
	"github.com/rongwang/litigation-tracker/internal/service"
	"github.com/rongwang/litigation-tracker/internal/utils"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg := config.LoadConfig()

	logger, err := utils.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up database connection
	db, err := config.SetupDatabase(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("set up database: %w", err)
	}
	defer db.Close()

	blobs, err := blob.NewFSStore(cfg.Blob.Dir)
	if err != nil {
		return fmt.Errorf("set up blob store: %w", err)
	}

	m := metrics.New()
	repo := repository.NewPostgresRepository(db)

	svc := service.NewDefaultService(repo, service.Options{
		JWTSecret:    cfg.Auth.JWTSecret,
		TokenTTL:     cfg.Auth.TokenTTL,
		StoreTimeout: cfg.Store.Timeout,
		Location:     cfg.Store.Location,
		Logger:       logger,
		Metrics:      m,
	})

	if _, err := svc.EnsureDefaultAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	im := importer.New(svc, importer.Options{
		Location: cfg.Store.Location,
		Logger:   logger,
		Metrics:  m,
	})

	handler := api.NewHandler(svc, blobs, im, api.Options{
		Logger:             logger,
		Metrics:            m,
		LoginRatePerMinute: cfg.Server.LoginRatePerMinute,
		MaxUploadBytes:     cfg.Server.MaxUploadBytes,
		Ready:              db.PingContext,
	})

	if !cfg.Log.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), m.Instrument(), api.RequestLogger(logger))

	// Set up routes
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGracePeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}
	logger.Info("goodbye")
	return nil
}

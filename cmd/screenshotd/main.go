// Package main wires together the screenshot service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jmunts-adl/screenshot-service/internal/api"
	"github.com/jmunts-adl/screenshot-service/internal/capture"
	"github.com/jmunts-adl/screenshot-service/internal/capture/screenshotone"
	"github.com/jmunts-adl/screenshot-service/internal/capture/zenrows"
	"github.com/jmunts-adl/screenshot-service/internal/config"
	"github.com/jmunts-adl/screenshot-service/internal/logging"
	"github.com/jmunts-adl/screenshot-service/internal/metrics"
	"github.com/jmunts-adl/screenshot-service/internal/relay"
	"github.com/jmunts-adl/screenshot-service/internal/storage"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Local development keeps credentials in a .env file; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shotClient, err := screenshotone.New(screenshotone.Config{
		AccessKey: cfg.Capture.ScreenshotOne.AccessKey,
		Endpoint:  cfg.Capture.ScreenshotOne.Endpoint,
		Timeout:   time.Duration(cfg.Capture.ScreenshotOne.TimeoutSeconds) * time.Second,
	}, logger.Named("screenshotone"))
	if err != nil {
		logger.Fatal("screenshotone client init failed", zap.Error(err))
	}
	orchestrator := capture.NewOrchestrator(shotClient, capture.Config{
		BasicProxy:     cfg.Capture.Proxy.Basic,
		AdvancedProxy:  cfg.Capture.Proxy.Advanced,
		BasicPortRange: cfg.Capture.Proxy.BasicPortRange,
	}, logger.Named("capture"))

	var renderer relay.Renderer
	if cfg.Capture.ZenRows.APIKey != "" {
		zenClient, err := zenrows.New(zenrows.Config{
			APIKey:   cfg.Capture.ZenRows.APIKey,
			Endpoint: cfg.Capture.ZenRows.Endpoint,
			Timeout:  time.Duration(cfg.Capture.ZenRows.TimeoutSeconds) * time.Second,
		}, logger.Named("zenrows"))
		if err != nil {
			logger.Fatal("zenrows client init failed", zap.Error(err))
		}
		renderer = zenClient
	} else {
		logger.Info("zenrows api key not set, rendering endpoint disabled")
	}

	backend, err := storage.New(ctx, storage.Config{
		Provider: cfg.Storage.Provider,
		Cloudinary: storage.CloudinaryConfig{
			CloudName: cfg.Storage.Cloudinary.CloudName,
			APIKey:    cfg.Storage.Cloudinary.APIKey,
			APISecret: cfg.Storage.Cloudinary.APISecret,
		},
		S3: storage.S3Config{
			Region:           cfg.Storage.S3.Region,
			Bucket:           cfg.Storage.S3.Bucket,
			CloudFrontDomain: cfg.Storage.S3.CloudFrontDomain,
			Prefix:           cfg.Storage.S3.Prefix,
			AccessKeyID:      cfg.Storage.S3.AccessKeyID,
			SecretAccessKey:  cfg.Storage.S3.SecretAccessKey,
			Endpoint:         cfg.Storage.S3.Endpoint,
		},
	}, logger.Named("storage"))
	if err != nil {
		logger.Fatal("storage backend init failed", zap.Error(err))
	}
	logger.Info("storage backend configured", zap.String("backend", backend.Name()))

	svc := relay.NewService(orchestrator, renderer, backend, relay.Config{
		DownloadTimeout: cfg.DownloadTimeout(),
		DefaultFolder:   cfg.Storage.Folder,
	}, logger.Named("relay"))

	apiServer := api.NewServer(svc, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}

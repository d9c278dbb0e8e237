package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/icon-grid/internal/application"
	"github.com/eugenenazirov/icon-grid/internal/config"
	"github.com/eugenenazirov/icon-grid/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("icon-grid", "Icon Grid - composes up to nine icons into one square group icon")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	canvasSize := kingpinApp.Flag("canvas-size", "Default side length of composed icons in pixels").Default("0").Int()
	minCanvasSize := kingpinApp.Flag("min-canvas-size", "Smallest canvas size accepted by the API").Default("0").Int()
	maxCanvasSize := kingpinApp.Flag("max-canvas-size", "Largest canvas size accepted by the API").Default("0").Int()
	maxImagePixels := kingpinApp.Flag("max-image-pixels", "Largest width*height accepted for uploaded images").Default("0").Int()
	maxIcons := kingpinApp.Flag("max-icons", "Maximum number of icons kept in the library").Default("0").Int()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *port != "" {
		overrides.Port = port
	}

	if *canvasSize > 0 {
		overrides.CanvasSize = canvasSize
	}

	if *minCanvasSize > 0 {
		overrides.MinCanvasSize = minCanvasSize
	}

	if *maxCanvasSize > 0 {
		overrides.MaxCanvasSize = maxCanvasSize
	}

	if *maxImagePixels > 0 {
		overrides.MaxImagePixels = maxImagePixels
	}

	if *maxIcons > 0 {
		overrides.MaxIcons = maxIcons
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("canvas_size", cfg.DefaultCanvasSize),
		zap.Int("max_icons", cfg.MaxIcons),
		zap.Int("min_canvas_size", cfg.MinCanvasSize),
		zap.Int("max_canvas_size", cfg.MaxCanvasSize),
		zap.Int64("max_upload_bytes", cfg.MaxUploadBytes),
		zap.Int("max_image_pixels", cfg.MaxImagePixels),
	)

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}

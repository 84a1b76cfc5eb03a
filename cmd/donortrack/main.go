package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"donortrack/internal/cli"
	apphttp "donortrack/internal/http"
	"donortrack/internal/log"
	"donortrack/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	if log.ParseLevel(cfg.LogLevel) > log.ParseLevel("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	store := cli.OpenStore(context.Background(), logger, cfg)
	defer store.Close()

	// a nil *amqp.Client must not end up inside the interface
	var publisher services.Publisher
	if events := cli.ConnectEvents(logger, cfg); events != nil {
		publisher = events
		defer events.Close()
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.NewServices(store, publisher), apphttp.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, logger)
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting donortrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", publisher != nil,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

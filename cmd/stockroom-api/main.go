package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aq2208/stockroom-api/cmd/stockroom-api/app"
	"github.com/aq2208/stockroom-api/configs"
	"github.com/aq2208/stockroom-api/internal/logging"
)

func main() {
	env := os.Getenv("APP_ENV") // dev | staging | prod
	if env == "" {
		env = "dev"
	}

	cfg, err := configs.Load("configs", env)
	if err != nil {
		logging.Base().Error("load config", "env", env, "err", err)
		os.Exit(1)
	}

	log := logging.Init(logging.Options{
		Component: cfg.App.Name,
		Level:     cfg.App.LogLevel,
		FilePath:  cfg.App.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := app.InitWithConfig(ctx, cfg)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	log.Info("stockroom-api started", "env", env, "http_addr", cfg.App.HTTPAddr, "grpc_health_addr", cfg.GRPC.HealthAddr)
	if err := a.Run(ctx); err != nil {
		log.Error("server stopped", "err", err)
		cleanup()
		os.Exit(1)
	}
	log.Info("stockroom-api stopped")
}

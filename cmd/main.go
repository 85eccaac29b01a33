package main

import (
	"context"
	"fmt"
	"os"

	"github.com/avilacode/bloomtrack-backend/internal/app"
	"github.com/avilacode/bloomtrack-backend/internal/db"
	"github.com/avilacode/bloomtrack-backend/internal/observability"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

func main() {
	cfg, err := app.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "bloomtrack",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	if shutdownTracing != nil {
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("postgres auto migration failed", "error", err)
	}

	application := app.New(cfg, log, postgresService.DB())
	defer application.Close()
	application.Start(ctx)

	log.Info("listening", "addr", cfg.HTTPAddr)
	if err := application.Router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("http server stopped", "error", err)
	}
}

package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/PratikDhanave/analytics-portal/internal/config"
	"github.com/PratikDhanave/analytics-portal/internal/httpserver"
	"github.com/PratikDhanave/analytics-portal/internal/logger"
	"github.com/PratikDhanave/analytics-portal/internal/store"
)

// main boots the ingestion service: config → logger → DB → schema → HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(logger.Config{
		Service: "analytics-api",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zlog.Sync() }()

	// One store client per process lifetime, shared by all requests.
	db, err := store.New(cfg.DBURL)
	if err != nil {
		zlog.Fatal("store connection failed", zap.Error(err))
	}
	defer db.Close()

	// Ensure required tables/indexes exist so `docker compose up --build` is enough.
	if err := db.EnsureSchema(); err != nil {
		zlog.Fatal("schema bootstrap failed", zap.Error(err))
	}

	router := httpserver.NewAPIRouter(db, zlog)

	zlog.Info("ingestion service started", zap.String("addr", cfg.APIAddr))
	if err := router.Run(cfg.APIAddr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

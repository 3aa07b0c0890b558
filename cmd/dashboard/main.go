package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/PratikDhanave/analytics-portal/internal/config"
	"github.com/PratikDhanave/analytics-portal/internal/httpserver"
	"github.com/PratikDhanave/analytics-portal/internal/logger"
	"github.com/PratikDhanave/analytics-portal/internal/store"
)

// main boots the admin dashboard: config → logger → DB → schema → HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(logger.Config{
		Service: "analytics-dashboard",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := store.New(cfg.DBURL)
	if err != nil {
		zlog.Fatal("store connection failed", zap.Error(err))
	}
	defer db.Close()

	// Idempotent; either service may start first.
	if err := db.EnsureSchema(); err != nil {
		zlog.Fatal("schema bootstrap failed", zap.Error(err))
	}

	router := httpserver.NewDashboardRouter(cfg, db, zlog)

	zlog.Info("dashboard started", zap.String("addr", cfg.DashboardAddr))
	if err := router.Run(cfg.DashboardAddr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

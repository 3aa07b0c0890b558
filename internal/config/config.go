package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration shared by both services.
type Config struct {
	// DBURL is the Postgres connection string. Required.
	DBURL string

	// APIAddr is the ingestion service bind address.
	APIAddr string

	// DashboardAddr is the admin dashboard bind address.
	DashboardAddr string

	// AdminPassword gates the dashboard's administrative actions.
	AdminPassword string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, with a .env file as a
// local-dev convenience.
func Load() (Config, error) {
	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return Config{}, errors.New("DB_URL required")
	}

	return Config{
		DBURL:         dbURL,
		APIAddr:       getenv("API_ADDR", ":8080"),
		DashboardAddr: getenv("DASHBOARD_ADDR", ":8081"),
		// Local dev fallback so the dashboard runs out-of-the-box.
		AdminPassword: getenv("ADMIN_PASSWORD", "1234"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFormat:     getenv("LOG_FORMAT", "json"),
	}, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

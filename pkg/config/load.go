package config

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the first env file found among envFilePath (searched upwards
// from the working directory), falls back to ./.env, then binds the
// environment into App.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	for _, path := range envFilePath {
		foundPath, err := FindEnvTest(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		logger.Info("Loading environment from file", "path", foundPath)
		return loadFromEnv()
	}

	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found in current directory")
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"db_driver", cfg.DB.Driver,
		"db", maskValue(cfg.DB.Url),
		"event_bus", cfg.EventBus.Driver,
		"event_bus_redis", maskValue(cfg.EventBus.Redis.URL),
		"oracle", cfg.Oracle.Provider,
		"cache", cfg.Cache.Driver,
		"cache_ttl", cfg.Cache.TTL,
		"housekeeping_schedule", cfg.Housekeeping.Schedule,
	)
	return &cfg, nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}

// Validate rejects driver names no factory knows about.
func (c *App) Validate() error {
	checks := []struct {
		name  string
		value string
		known []string
	}{
		{"DATABASE_DRIVER", c.DB.Driver, []string{"postgres", "sqlite"}},
		{"EVENT_BUS_DRIVER", c.EventBus.Driver, []string{"memory", "redis", "kafka"}},
		{"ORACLE_PROVIDER", c.Oracle.Provider, []string{"stub", "starknet"}},
		{"CACHE_DRIVER", c.Cache.Driver, []string{"memory", "redis", "none"}},
		{"LOG_FORMAT", c.Log.Format, []string{"json", "logfmt", "text"}},
	}
	for _, ch := range checks {
		if !slices.Contains(ch.known, ch.value) {
			return fmt.Errorf("invalid %s %q: want one of %v", ch.name, ch.value, ch.known)
		}
	}
	return nil
}

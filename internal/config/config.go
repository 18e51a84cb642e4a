package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all process configuration. Every value is environment
// overridable; the .env file is optional and only read when present.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	RedisURL        string
	JWTSecret       string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, plus an optional .env file in
// the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	v.SetDefault("TEAMFLOW_PORT", "8080")
	v.SetDefault("TEAMFLOW_ENV", "dev")
	v.SetDefault("TEAMFLOW_LOG_LEVEL", "info")
	v.SetDefault("TEAMFLOW_REDIS_URL", "")
	v.SetDefault("TEAMFLOW_JWT_SECRET", "")
	v.SetDefault("TEAMFLOW_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("TEAMFLOW_SHUTDOWN_TIMEOUT", "10s")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		slog.Debug("no .env file found, using environment variables and defaults")
	}

	shutdownTimeout, err := time.ParseDuration(v.GetString("TEAMFLOW_SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:            v.GetString("TEAMFLOW_PORT"),
		Env:             v.GetString("TEAMFLOW_ENV"),
		LogLevel:        v.GetString("TEAMFLOW_LOG_LEVEL"),
		RedisURL:        v.GetString("TEAMFLOW_REDIS_URL"),
		JWTSecret:       v.GetString("TEAMFLOW_JWT_SECRET"),
		AllowedOrigins:  splitCSV(v.GetString("TEAMFLOW_ALLOWED_ORIGINS")),
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

// splitCSV trims and filters a comma-separated list.
func splitCSV(value string) []string {
	var out []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

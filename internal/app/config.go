package app

import (
	"strings"

	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
	"github.com/speechsmith/speechsmith-backend/internal/utils"
)

type Config struct {
	HTTPAddr      string
	MetricsAddr   string
	Environment   string
	Version       string
	RedisAddr     string
	WorkerEnabled bool
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		HTTPAddr:      utils.GetEnv("HTTP_ADDR", ":8080", log),
		MetricsAddr:   utils.GetEnv("METRICS_ADDR", ":9100", log),
		Environment:   utils.GetEnv("APP_ENV", "development", log),
		Version:       utils.GetEnv("APP_VERSION", "dev", log),
		RedisAddr:     utils.GetEnv("REDIS_ADDR", "", log),
		WorkerEnabled: envBool(utils.GetEnv("WORKER_ENABLED", "true", log)),
	}
}

func envBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

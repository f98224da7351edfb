package app

import (
	httpapi "github.com/speechsmith/speechsmith-backend/internal/http"
	"github.com/speechsmith/speechsmith-backend/internal/observability"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, metrics *observability.Metrics, handlers Handlers) *httpapi.Server {
	log.Info("Wiring router...")
	return httpapi.NewServer(httpapi.RouterConfig{
		Log:     log,
		Metrics: metrics,

		HealthHandler:   handlers.Health,
		SpeechHandler:   handlers.Speech,
		IssueHandler:    handlers.Issue,
		JobHandler:      handlers.Jobs,
		RealtimeHandler: handlers.Realtime,
	})
}

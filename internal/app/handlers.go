package app

import (
	"gorm.io/gorm"

	"github.com/speechsmith/speechsmith-backend/internal/http/handlers"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
	"github.com/speechsmith/speechsmith-backend/internal/realtime"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Speech   *handlers.SpeechHandler
	Issue    *handlers.IssueHandler
	Jobs     *handlers.JobHandler
	Realtime *handlers.RealtimeHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, clients Clients, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   handlers.NewHealthHandler(db, clients.Redis),
		Speech:   handlers.NewSpeechHandler(services.Speech, services.Analysis, services.Humanization, services.QualityGate),
		Issue:    handlers.NewIssueHandler(services.QualityGate),
		Jobs:     handlers.NewJobHandler(services.JobService),
		Realtime: handlers.NewRealtimeHandler(log, hub),
	}
}

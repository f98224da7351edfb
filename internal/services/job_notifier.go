package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
	"github.com/speechsmith/speechsmith-backend/internal/realtime"
	"github.com/speechsmith/speechsmith-backend/internal/realtime/bus"
)

// JobNotifier publishes pipeline progress to the realtime bus. Every method
// is fire-and-forget: publish failures are logged, never returned.
type JobNotifier interface {
	JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int)
	JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string)
	JobDone(userID uuid.UUID, job *types.JobRun)
	AnalysisCompleted(userID, speechID uuid.UUID, summary any)
}

type jobNotifier struct {
	log *logger.Logger
	bus bus.Bus
}

func NewJobNotifier(baseLog *logger.Logger, b bus.Bus) JobNotifier {
	return &jobNotifier{
		log: baseLog.With("service", "JobNotifier"),
		bus: b,
	}
}

func (n *jobNotifier) publish(userID uuid.UUID, event realtime.SSEEvent, data any) {
	if n.bus == nil || userID == uuid.Nil {
		return
	}
	msg := realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   event,
		Data:    data,
	}
	if err := n.bus.Publish(context.Background(), msg); err != nil {
		n.log.Warn("event publish failed", "event", string(event), "error", err)
	}
}

func (n *jobNotifier) JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int) {
	if job == nil {
		return
	}
	n.publish(userID, realtime.SSEEventHumanizeProgress, map[string]any{
		"job_id":   job.ID,
		"job_type": job.JobType,
		"stage":    stage,
		"progress": progress,
	})
}

func (n *jobNotifier) JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string) {
	if job == nil {
		return
	}
	n.publish(userID, realtime.SSEEventHumanizeFailed, map[string]any{
		"job_id":   job.ID,
		"job_type": job.JobType,
		"stage":    stage,
		"error":    errorMessage,
	})
}

func (n *jobNotifier) JobDone(userID uuid.UUID, job *types.JobRun) {
	if job == nil {
		return
	}
	n.publish(userID, realtime.SSEEventHumanizeCompleted, map[string]any{
		"job_id":   job.ID,
		"job_type": job.JobType,
		"result":   job.Result,
	})
}

func (n *jobNotifier) AnalysisCompleted(userID, speechID uuid.UUID, summary any) {
	n.publish(userID, realtime.SSEEventAnalysisCompleted, map[string]any{
		"speech_id": speechID,
		"summary":   summary,
	})
}

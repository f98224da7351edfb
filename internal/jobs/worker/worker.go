package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	jobsrepo "github.com/speechsmith/speechsmith-backend/internal/data/repos/jobs"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/jobs/runtime"
	"github.com/speechsmith/speechsmith-backend/internal/observability"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
	"github.com/speechsmith/speechsmith-backend/internal/services"
	"github.com/speechsmith/speechsmith-backend/internal/utils"
)

// Worker polls job_run for claimable work and dispatches to registered
// handlers. Multiple replicas are safe: claims use SKIP LOCKED and stale
// heartbeats are reclaimed.
type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     jobsrepo.JobRunRepo
	registry *runtime.Registry
	notify   services.JobNotifier

	pollInterval time.Duration
	maxAttempts  int
	staleAfter   time.Duration
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo jobsrepo.JobRunRepo, registry *runtime.Registry, notify services.JobNotifier) *Worker {
	log := baseLog.With("component", "JobWorker")
	pollMs := utils.GetEnvAsInt("WORKER_POLL_INTERVAL_MS", 1000, log)
	if pollMs < 100 {
		pollMs = 100
	}
	maxAttempts := utils.GetEnvAsInt("JOB_MAX_ATTEMPTS", 5, log)
	staleSec := utils.GetEnvAsInt("JOB_HEARTBEAT_STALE_SECONDS", 1800, log)
	return &Worker{
		db:           db,
		log:          log,
		repo:         repo,
		registry:     registry,
		notify:       notify,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
		maxAttempts:  maxAttempts,
		staleAfter:   time.Duration(staleSec) * time.Second,
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := utils.GetEnvAsInt("WORKER_CONCURRENCY", 4, w.log)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("starting job worker pool", "concurrency", concurrency, "poll_interval", w.pollInterval.String())

	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	// Jitter the tick so replicas don't claim in lockstep.
	ticker := time.NewTicker(w.pollInterval + time.Duration(rand.Int63n(int64(w.pollInterval/4)+1)))
	defer ticker.Stop()

	retryDelay := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			job, err := w.repo.ClaimNextRunnable(ctx, nil, w.maxAttempts, retryDelay, w.staleAfter)
			if err != nil {
				w.log.Warn("claim next runnable failed", "worker_id", workerID, "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.execute(ctx, workerID, job)
		}
	}
}

func (w *Worker) execute(ctx context.Context, workerID int, job *types.JobRun) {
	h, ok := w.registry.Get(job.JobType)
	jc := runtime.NewContext(ctx, w.db, job, w.repo, w.notify)

	if !ok {
		w.log.Warn("no handler registered for job_type",
			"worker_id", workerID,
			"job_type", job.JobType,
			"job_id", job.ID,
		)
		jc.Fail("dispatch", &missingHandlerError{JobType: job.JobType})
		return
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go w.heartbeatLoop(hbCtx, job.ID)

	start := time.Now()
	defer func() {
		if metrics := observability.Current(); metrics != nil {
			metrics.ObserveActivity("run", job.JobType, string(job.Status), time.Since(start))
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("job handler panic",
				"worker_id", workerID,
				"job_id", job.ID,
				"job_type", job.JobType,
				"panic", r,
			)
			jc.Fail("panic", &panicError{Val: r})
		}
	}()

	if runErr := h.Run(jc); runErr != nil {
		// Most pipelines call jc.Fail themselves; this is a safety net.
		jc.Fail("run", runErr)
	}
}

// heartbeatLoop keeps the claim fresh while the handler runs so other
// replicas don't reclaim a live job.
func (w *Worker) heartbeatLoop(ctx context.Context, jobID uuid.UUID) {
	interval := w.staleAfter / 3
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.repo.Heartbeat(ctx, nil, jobID); err != nil {
				w.log.Warn("job heartbeat failed", "job_id", jobID, "error", err)
			}
		}
	}
}

type missingHandlerError struct{ JobType string }

func (e *missingHandlerError) Error() string { return "no handler registered for job_type=" + e.JobType }

type panicError struct{ Val any }

func (e *panicError) Error() string { return "panic: unexpected error" }

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	jobsrepo "github.com/speechsmith/speechsmith-backend/internal/data/repos/jobs"
	speechrepo "github.com/speechsmith/speechsmith-backend/internal/data/repos/speech"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/humanize"
	"github.com/speechsmith/speechsmith-backend/internal/platform/apierr"
	"github.com/speechsmith/speechsmith-backend/internal/platform/ctxutil"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

// JobTypeSpeechHumanize is the job_run type the async path enqueues and the
// worker pipeline registers under.
const JobTypeSpeechHumanize = "speech_humanize"

// maxTimeBudgetSeconds bounds the advisory referee budget a caller may pass.
const maxTimeBudgetSeconds = 900

// HumanizeRequest is the pipeline entry contract for both the sync and async
// paths. An empty InputText means "use the speech body".
type HumanizeRequest struct {
	SpeechID          uuid.UUID `json:"speech_id"`
	InputText         string    `json:"input_text,omitempty"`
	RunRhetoric       bool      `json:"run_rhetoric"`
	RunPersona        bool      `json:"run_persona"`
	RunCritics        bool      `json:"run_critics"`
	TimeBudgetSeconds int       `json:"time_budget_seconds,omitempty"`
}

type HumanizationService interface {
	// Humanize validates the request and drives the pass orchestrator
	// synchronously. progress is optional.
	Humanize(ctx context.Context, userID uuid.UUID, req HumanizeRequest, progress humanize.ProgressFunc) (*humanize.Result, error)

	// EnqueueHumanize records a speech_humanize JobRun carrying the same
	// request payload for the background worker.
	EnqueueHumanize(ctx context.Context, userID uuid.UUID, req HumanizeRequest) (*types.JobRun, error)
}

type humanizationService struct {
	db  *gorm.DB
	log *logger.Logger

	orchestrator *humanize.Orchestrator
	speeches     speechrepo.SpeechRepo
	jobs         jobsrepo.JobRunRepo
}

func NewHumanizationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	orchestrator *humanize.Orchestrator,
	speeches speechrepo.SpeechRepo,
	jobs jobsrepo.JobRunRepo,
) HumanizationService {
	return &humanizationService{
		db:           db,
		log:          baseLog.With("service", "HumanizationService"),
		orchestrator: orchestrator,
		speeches:     speeches,
		jobs:         jobs,
	}
}

func (s *humanizationService) Humanize(ctx context.Context, userID uuid.UUID, req HumanizeRequest, progress humanize.ProgressFunc) (*humanize.Result, error) {
	sp, input, err := s.validate(ctx, userID, &req)
	if err != nil {
		return nil, err
	}

	s.setStatus(ctx, sp.ID, types.SpeechStatusHumanizing)

	result, err := s.orchestrator.Run(ctx, sp, humanize.Request{
		SpeechID:          sp.ID,
		InputText:         input,
		RunRhetoric:       req.RunRhetoric,
		RunPersona:        req.RunPersona,
		RunCritics:        req.RunCritics,
		TimeBudgetSeconds: req.TimeBudgetSeconds,
	}, progress)
	if err != nil {
		s.setStatus(ctx, sp.ID, types.SpeechStatusDraft)
		return nil, err
	}

	s.setStatus(ctx, sp.ID, types.SpeechStatusReviewed)
	return &result, nil
}

func (s *humanizationService) EnqueueHumanize(ctx context.Context, userID uuid.UUID, req HumanizeRequest) (*types.JobRun, error) {
	sp, _, err := s.validate(ctx, userID, &req)
	if err != nil {
		return nil, err
	}

	exists, err := s.jobs.HasRunnableForEntity(ctx, nil, userID, "speech", sp.ID, JobTypeSpeechHumanize)
	if err != nil {
		return nil, fmt.Errorf("check runnable jobs: %w", err)
	}
	if exists {
		return nil, apierr.New(http.StatusConflict, "humanize_already_queued",
			fmt.Errorf("a humanize job is already queued or running for this speech"))
	}

	payload := map[string]any{
		"speech_id":    sp.ID.String(),
		"run_rhetoric": req.RunRhetoric,
		"run_persona":  req.RunPersona,
		"run_critics":  req.RunCritics,
	}
	if strings.TrimSpace(req.InputText) != "" {
		payload["input_text"] = req.InputText
	}
	if req.TimeBudgetSeconds > 0 {
		payload["time_budget_seconds"] = req.TimeBudgetSeconds
	}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			payload["trace_id"] = td.TraceID
		}
		if td.RequestID != "" {
			payload["request_id"] = td.RequestID
		}
	}
	raw, _ := json.Marshal(payload)

	now := time.Now()
	entityID := sp.ID
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: userID,
		JobType:     JobTypeSpeechHumanize,
		EntityType:  "speech",
		EntityID:    &entityID,
		Status:      types.JobStatusQueued,
		Stage:       "queued",
		Payload:     datatypes.JSON(raw),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.jobs.Create(ctx, nil, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.log.Info("humanize job enqueued", "job_id", job.ID.String(), "speech_id", sp.ID.String())
	return job, nil
}

// validate resolves the speech and the effective input text, normalizing the
// request in place.
func (s *humanizationService) validate(ctx context.Context, userID uuid.UUID, req *HumanizeRequest) (*types.Speech, string, error) {
	if userID == uuid.Nil {
		return nil, "", apierr.New(http.StatusBadRequest, "missing_user", fmt.Errorf("user id required"))
	}
	if req.TimeBudgetSeconds < 0 || req.TimeBudgetSeconds > maxTimeBudgetSeconds {
		return nil, "", apierr.New(http.StatusBadRequest, "invalid_time_budget",
			fmt.Errorf("time budget must be between 0 and %d seconds", maxTimeBudgetSeconds))
	}
	sp, err := s.speeches.GetByIDForUser(ctx, nil, req.SpeechID, userID)
	if err != nil {
		return nil, "", fmt.Errorf("load speech: %w", err)
	}
	if sp == nil {
		return nil, "", apierr.New(http.StatusNotFound, "speech_not_found", fmt.Errorf("speech not found"))
	}
	input := req.InputText
	if strings.TrimSpace(input) == "" {
		input = sp.Body
	}
	if strings.TrimSpace(input) == "" {
		return nil, "", apierr.New(http.StatusBadRequest, "empty_text", fmt.Errorf("input text required"))
	}
	return sp, input, nil
}

// setStatus is a best-effort lifecycle stamp; a failed update never aborts a
// pipeline run.
func (s *humanizationService) setStatus(ctx context.Context, speechID uuid.UUID, status types.SpeechStatus) {
	if err := s.speeches.UpdateFields(ctx, nil, speechID, map[string]interface{}{"status": status}); err != nil {
		s.log.Warn("speech status update failed", "speech_id", speechID.String(), "status", string(status), "error", err)
	}
}

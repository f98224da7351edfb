package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	jobsrepo "github.com/speechsmith/speechsmith-backend/internal/data/repos/jobs"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/platform/apierr"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

// JobService is the read-side surface for job status polling. Ownership is
// enforced at the repo query, so a foreign job id looks identical to a
// missing one.
type JobService interface {
	GetForUser(ctx context.Context, userID, jobID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo jobsrepo.JobRunRepo
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo jobsrepo.JobRunRepo) JobService {
	return &jobService{
		db:   db,
		log:  baseLog.With("service", "JobService"),
		repo: repo,
	}
}

func (s *jobService) GetForUser(ctx context.Context, userID, jobID uuid.UUID) (*types.JobRun, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "missing_user", fmt.Errorf("user id required"))
	}
	if jobID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "missing_job_id", fmt.Errorf("job id required"))
	}
	job, err := s.repo.GetByIDForUser(ctx, nil, jobID, userID)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	if job == nil {
		return nil, apierr.New(http.StatusNotFound, "job_not_found", fmt.Errorf("job not found"))
	}
	return job, nil
}

package speech

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

type ClicheAnalysisRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ClicheAnalysis) ([]*types.ClicheAnalysis, error)
	LatestBySpeech(ctx context.Context, tx *gorm.DB, speechID uuid.UUID) (*types.ClicheAnalysis, error)
	ListBySpeech(ctx context.Context, tx *gorm.DB, speechID uuid.UUID, limit int) ([]*types.ClicheAnalysis, error)
}

type clicheAnalysisRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClicheAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) ClicheAnalysisRepo {
	return &clicheAnalysisRepo{db: db, log: baseLog.With("repo", "ClicheAnalysisRepo")}
}

func (r *clicheAnalysisRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ClicheAnalysis) ([]*types.ClicheAnalysis, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.ClicheAnalysis{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *clicheAnalysisRepo) LatestBySpeech(ctx context.Context, tx *gorm.DB, speechID uuid.UUID) (*types.ClicheAnalysis, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if speechID == uuid.Nil {
		return nil, nil
	}
	var row types.ClicheAnalysis
	err := t.WithContext(ctx).
		Where("speech_id = ?", speechID).
		Order("created_at DESC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *clicheAnalysisRepo) ListBySpeech(ctx context.Context, tx *gorm.DB, speechID uuid.UUID, limit int) ([]*types.ClicheAnalysis, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ClicheAnalysis
	if speechID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(ctx).
		Where("speech_id = ?", speechID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

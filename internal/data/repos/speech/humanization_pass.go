package speech

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

type HumanizationPassRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.HumanizationPass) ([]*types.HumanizationPass, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.HumanizationPass, error)
	ListBySpeech(ctx context.Context, tx *gorm.DB, speechID uuid.UUID) ([]*types.HumanizationPass, error)
	MaxPassOrder(ctx context.Context, tx *gorm.DB, speechID uuid.UUID) (int, error)
}

type humanizationPassRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHumanizationPassRepo(db *gorm.DB, baseLog *logger.Logger) HumanizationPassRepo {
	return &humanizationPassRepo{db: db, log: baseLog.With("repo", "HumanizationPassRepo")}
}

func (r *humanizationPassRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.HumanizationPass) ([]*types.HumanizationPass, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.HumanizationPass{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *humanizationPassRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.HumanizationPass, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.HumanizationPass
	err := t.WithContext(ctx).
		Where("id = ?", id).
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

func (r *humanizationPassRepo) ListBySpeech(ctx context.Context, tx *gorm.DB, speechID uuid.UUID) ([]*types.HumanizationPass, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.HumanizationPass
	if speechID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("speech_id = ?", speechID).
		Order("pass_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *humanizationPassRepo) MaxPassOrder(ctx context.Context, tx *gorm.DB, speechID uuid.UUID) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if speechID == uuid.Nil {
		return 0, nil
	}
	var max *int
	err := t.WithContext(ctx).
		Model(&types.HumanizationPass{}).
		Where("speech_id = ?", speechID).
		Select("MAX(pass_order)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

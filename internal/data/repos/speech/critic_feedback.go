package speech

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

type CriticFeedbackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.CriticFeedback) ([]*types.CriticFeedback, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CriticFeedback, error)
	ListByPassIDs(ctx context.Context, tx *gorm.DB, passIDs []uuid.UUID) ([]*types.CriticFeedback, error)
	SetAcceptedEdits(ctx context.Context, tx *gorm.DB, id uuid.UUID, acceptedEdits datatypes.JSON) error
}

type criticFeedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCriticFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) CriticFeedbackRepo {
	return &criticFeedbackRepo{db: db, log: baseLog.With("repo", "CriticFeedbackRepo")}
}

func (r *criticFeedbackRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.CriticFeedback) ([]*types.CriticFeedback, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.CriticFeedback{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *criticFeedbackRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CriticFeedback, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.CriticFeedback
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

func (r *criticFeedbackRepo) ListByPassIDs(ctx context.Context, tx *gorm.DB, passIDs []uuid.UUID) ([]*types.CriticFeedback, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CriticFeedback
	if len(passIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("pass_id IN ?", passIDs).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SetAcceptedEdits is the referee's one permitted write against an existing
// feedback row.
func (r *criticFeedbackRepo) SetAcceptedEdits(ctx context.Context, tx *gorm.DB, id uuid.UUID, acceptedEdits datatypes.JSON) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.CriticFeedback{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"accepted_edits": acceptedEdits,
			"updated_at":     time.Now(),
		}).Error
}

package speech

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

type SpeechRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Speech) ([]*types.Speech, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Speech, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Speech, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Speech, error)
	ListExportedForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, excludeID uuid.UUID, limit int) ([]*types.Speech, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type speechRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSpeechRepo(db *gorm.DB, baseLog *logger.Logger) SpeechRepo {
	return &speechRepo{db: db, log: baseLog.With("repo", "SpeechRepo")}
}

func (r *speechRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Speech) ([]*types.Speech, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Speech{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *speechRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Speech, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Speech
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

func (r *speechRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Speech, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var row types.Speech
	err := t.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
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

func (r *speechRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Speech, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Speech
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *speechRepo) ListExportedForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, excludeID uuid.UUID, limit int) ([]*types.Speech, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Speech
	if userID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, types.SpeechStatusExported).
		Order("exported_at DESC")
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *speechRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return t.WithContext(ctx).
		Model(&types.Speech{}).
		Where("id = ?", id).
		Updates(updates).Error
}

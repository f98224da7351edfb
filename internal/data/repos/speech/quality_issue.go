package speech

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

type QualityIssueRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.QualityIssue) ([]*types.QualityIssue, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QualityIssue, error)
	ListBySpeechUser(ctx context.Context, tx *gorm.DB, speechID, userID uuid.UUID, status *types.IssueStatus) ([]*types.QualityIssue, error)
	ListUnresolved(ctx context.Context, tx *gorm.DB, speechID, userID uuid.UUID) ([]*types.QualityIssue, error)
	MarkResolved(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.IssueStatus, resolvedBy *uuid.UUID, note string) (bool, error)
}

type qualityIssueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQualityIssueRepo(db *gorm.DB, baseLog *logger.Logger) QualityIssueRepo {
	return &qualityIssueRepo{db: db, log: baseLog.With("repo", "QualityIssueRepo")}
}

func (r *qualityIssueRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.QualityIssue) ([]*types.QualityIssue, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.QualityIssue{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *qualityIssueRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QualityIssue, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.QualityIssue
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

func (r *qualityIssueRepo) ListBySpeechUser(ctx context.Context, tx *gorm.DB, speechID, userID uuid.UUID, status *types.IssueStatus) ([]*types.QualityIssue, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.QualityIssue
	if speechID == uuid.Nil || userID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(ctx).
		Where("speech_id = ? AND user_id = ?", speechID, userID).
		Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *qualityIssueRepo) ListUnresolved(ctx context.Context, tx *gorm.DB, speechID, userID uuid.UUID) ([]*types.QualityIssue, error) {
	status := types.IssueStatusUnresolved
	return r.ListBySpeechUser(ctx, tx, speechID, userID, &status)
}

// MarkResolved transitions an unresolved issue to a terminal status. The
// status guard in the WHERE clause is what makes transitions one-directional;
// a false return means the issue was already terminal (or missing).
func (r *qualityIssueRepo) MarkResolved(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.IssueStatus, resolvedBy *uuid.UUID, note string) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	now := time.Now()
	res := t.WithContext(ctx).
		Model(&types.QualityIssue{}).
		Where("id = ? AND status = ?", id, types.IssueStatusUnresolved).
		Updates(map[string]interface{}{
			"status":          status,
			"resolved_at":     now,
			"resolved_by":     resolvedBy,
			"resolution_note": note,
			"updated_at":      now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

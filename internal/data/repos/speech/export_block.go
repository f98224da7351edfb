package speech

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/speechsmith/speechsmith-backend/internal/data/repos/dberr"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

type ExportBlockRepo interface {
	GetActive(ctx context.Context, tx *gorm.DB, speechID, userID uuid.UUID) (*types.ExportBlock, error)
	UpsertActive(ctx context.Context, tx *gorm.DB, speechID, userID uuid.UUID, reason string, relatedIssueIDs datatypes.JSON) (*types.ExportBlock, error)
	DeactivateActive(ctx context.Context, tx *gorm.DB, speechID, userID uuid.UUID) (*types.ExportBlock, error)
}

type exportBlockRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExportBlockRepo(db *gorm.DB, baseLog *logger.Logger) ExportBlockRepo {
	return &exportBlockRepo{db: db, log: baseLog.With("repo", "ExportBlockRepo")}
}

func (r *exportBlockRepo) GetActive(ctx context.Context, tx *gorm.DB, speechID, userID uuid.UUID) (*types.ExportBlock, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if speechID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var row types.ExportBlock
	err := t.WithContext(ctx).
		Where("speech_id = ? AND user_id = ? AND is_active = ?", speechID, userID, true).
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

// UpsertActive refreshes the live block when one exists, otherwise inserts
// it. The partial unique index on (speech_id, user_id) WHERE is_active turns a
// concurrent double-insert into a conflict instead of a second live row.
func (r *exportBlockRepo) UpsertActive(ctx context.Context, tx *gorm.DB, speechID, userID uuid.UUID, reason string, relatedIssueIDs datatypes.JSON) (*types.ExportBlock, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if speechID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}

	existing, err := r.GetActive(ctx, t, speechID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := t.WithContext(ctx).
			Model(&types.ExportBlock{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"block_reason":      reason,
				"related_issue_ids": relatedIssueIDs,
				"updated_at":        time.Now(),
			}).Error; err != nil {
			return nil, err
		}
		existing.BlockReason = reason
		existing.RelatedIssueIDs = relatedIssueIDs
		return existing, nil
	}

	row := &types.ExportBlock{
		SpeechID:        speechID,
		UserID:          userID,
		IsActive:        true,
		BlockReason:     reason,
		RelatedIssueIDs: relatedIssueIDs,
	}
	if err := t.WithContext(ctx).Create(row).Error; err != nil {
		// A concurrent gate run inserted the live row first; fall back to
		// refreshing it.
		if dberr.IsConflict(err) {
			r.log.Warn("active export block insert conflict, refreshing existing row",
				"speech_id", speechID.String(), "user_id", userID.String())
			return r.UpsertActive(ctx, t, speechID, userID, reason, relatedIssueIDs)
		}
		return nil, err
	}
	return row, nil
}

func (r *exportBlockRepo) DeactivateActive(ctx context.Context, tx *gorm.DB, speechID, userID uuid.UUID) (*types.ExportBlock, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if speechID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	existing, err := r.GetActive(ctx, t, speechID, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	now := time.Now()
	if err := t.WithContext(ctx).
		Model(&types.ExportBlock{}).
		Where("id = ? AND is_active = ?", existing.ID, true).
		Updates(map[string]interface{}{
			"is_active":   false,
			"resolved_at": now,
			"updated_at":  now,
		}).Error; err != nil {
		return nil, err
	}
	existing.IsActive = false
	existing.ResolvedAt = &now
	return existing, nil
}

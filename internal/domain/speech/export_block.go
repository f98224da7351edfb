package speech

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExportBlock records an active export denial for a speech+user. At most one
// row may be is_active=true per (speech_id, user_id); the partial unique index
// backs the gate service's upsert.
type ExportBlock struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SpeechID uuid.UUID `gorm:"type:uuid;not null;index:idx_export_block_speech_user,priority:1" json:"speech_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index:idx_export_block_speech_user,priority:2" json:"user_id"`

	IsActive        bool           `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	BlockReason     string         `gorm:"column:block_reason;type:text;not null" json:"block_reason"`
	RelatedIssueIDs datatypes.JSON `gorm:"column:related_issue_ids;type:jsonb" json:"related_issue_ids,omitempty"`

	ResolvedAt *time.Time `gorm:"column:resolved_at;index" json:"resolved_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ExportBlock) TableName() string { return "export_block" }

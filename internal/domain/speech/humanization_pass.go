package speech

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PassType string

const (
	PassTypeRhetoric PassType = "rhetoric"
	PassTypePersona  PassType = "persona"
	PassTypeCritic1  PassType = "critic1"
	PassTypeCritic2  PassType = "critic2"
	PassTypeReferee  PassType = "referee"
	PassTypeCultural PassType = "cultural"
)

// HumanizationPass is an immutable input/output snapshot of one rewrite stage.
// Rows are created once per stage execution and never updated; pass_order is
// strictly increasing within a speech's chain.
type HumanizationPass struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SpeechID uuid.UUID `gorm:"type:uuid;not null;index:idx_humanization_pass_speech_order,priority:1;index" json:"speech_id"`

	PassType  PassType `gorm:"column:pass_type;type:text;not null;index" json:"pass_type"`
	PassOrder int      `gorm:"column:pass_order;not null;index:idx_humanization_pass_speech_order,priority:2" json:"pass_order"`

	InputText  string `gorm:"column:input_text;type:text;not null" json:"input_text"`
	OutputText string `gorm:"column:output_text;type:text" json:"output_text"`

	Changes datatypes.JSON `gorm:"column:changes;type:jsonb" json:"changes,omitempty"`
	Metrics datatypes.JSON `gorm:"column:metrics;type:jsonb" json:"metrics,omitempty"`

	ProcessingTimeMs int64  `gorm:"column:processing_time_ms;not null;default:0" json:"processing_time_ms"`
	ModelUsed        string `gorm:"column:model_used" json:"model_used,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (HumanizationPass) TableName() string { return "humanization_pass" }

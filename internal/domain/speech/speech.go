package speech

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SpeechStatus string

const (
	SpeechStatusDraft      SpeechStatus = "draft"
	SpeechStatusHumanizing SpeechStatus = "humanizing"
	SpeechStatusReviewed   SpeechStatus = "reviewed"
	SpeechStatusExported   SpeechStatus = "exported"
)

// Speech is the anchor row every pipeline artifact hangs off.
type Speech struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Title string `gorm:"column:title;not null" json:"title"`
	Body  string `gorm:"column:body;type:text;not null" json:"body"`

	Status SpeechStatus `gorm:"column:status;type:text;not null;default:'draft';index" json:"status"`

	// Stylometric target profile for this speaker.
	TargetAvgSentenceLen      float64 `gorm:"column:target_avg_sentence_len;not null;default:17" json:"target_avg_sentence_len"`
	TargetPunctuationDensity  float64 `gorm:"column:target_punctuation_density;not null;default:0.1" json:"target_punctuation_density"`

	ExportedAt *time.Time `gorm:"column:exported_at;index" json:"exported_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Speech) TableName() string { return "speech" }

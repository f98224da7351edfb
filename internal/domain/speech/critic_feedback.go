package speech

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CriticType string

const (
	CriticTypeA CriticType = "critic_a"
	CriticTypeB CriticType = "critic_b"
)

// CriticFeedback scores one pass output across four dimensions. Dimension
// scores are clamped to [0,10] before persisting. AcceptedEdits stays empty
// until the referee stage reconciles the critics.
type CriticFeedback struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PassID uuid.UUID `gorm:"type:uuid;not null;index" json:"pass_id"`

	CriticType CriticType `gorm:"column:critic_type;type:text;not null;index" json:"critic_type"`

	SpecificityScore    float64 `gorm:"column:specificity_score;not null;default:0" json:"specificity_score"`
	FreshnessScore      float64 `gorm:"column:freshness_score;not null;default:0" json:"freshness_score"`
	PerformabilityScore float64 `gorm:"column:performability_score;not null;default:0" json:"performability_score"`
	PersonaFitScore     float64 `gorm:"column:persona_fit_score;not null;default:0" json:"persona_fit_score"`
	OverallScore        float64 `gorm:"column:overall_score;not null;default:0" json:"overall_score"`

	Suggestions   datatypes.JSON `gorm:"column:suggestions;type:jsonb" json:"suggestions,omitempty"`
	Feedback      string         `gorm:"column:feedback;type:text" json:"feedback,omitempty"`
	AcceptedEdits datatypes.JSON `gorm:"column:accepted_edits;type:jsonb" json:"accepted_edits,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CriticFeedback) TableName() string { return "critic_feedback" }

package speech

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClicheAnalysis aggregates one matcher run over a speech body. Analytics
// write: a failed insert is logged and surfaced as a warning, never raised.
type ClicheAnalysis struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SpeechID uuid.UUID `gorm:"type:uuid;not null;index" json:"speech_id"`

	Density      float64 `gorm:"column:density;not null;default:0" json:"density"`
	TotalTokens  int     `gorm:"column:total_tokens;not null;default:0" json:"total_tokens"`
	MatchCount   int     `gorm:"column:match_count;not null;default:0" json:"match_count"`
	NeedsRewrite bool    `gorm:"column:needs_rewrite;not null;default:false" json:"needs_rewrite"`

	Matches datatypes.JSON `gorm:"column:matches;type:jsonb" json:"matches,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ClicheAnalysis) TableName() string { return "cliche_analysis" }

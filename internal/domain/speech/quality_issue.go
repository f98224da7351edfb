package speech

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type IssueType string

const (
	IssueTypeFactCheck      IssueType = "fact_check"
	IssueTypePlagiarism     IssueType = "plagiarism"
	IssueTypeRiskClaim      IssueType = "risk_claim"
	IssueTypeSensitiveTopic IssueType = "sensitive_topic"
	IssueTypeCliche         IssueType = "cliche"
)

type IssueSeverity string

const (
	SeverityLow      IssueSeverity = "low"
	SeverityMedium   IssueSeverity = "medium"
	SeverityHigh     IssueSeverity = "high"
	SeverityCritical IssueSeverity = "critical"
)

type IssueStatus string

const (
	IssueStatusUnresolved    IssueStatus = "unresolved"
	IssueStatusResolved      IssueStatus = "resolved"
	IssueStatusAcknowledged  IssueStatus = "acknowledged"
	IssueStatusFalsePositive IssueStatus = "false_positive"
)

// TerminalIssueStatuses are the states an unresolved issue may transition to.
// Transitions are one-directional; a re-detection creates a new row instead of
// reopening a terminal one.
var TerminalIssueStatuses = []IssueStatus{
	IssueStatusResolved,
	IssueStatusAcknowledged,
	IssueStatusFalsePositive,
}

type QualityIssue struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SpeechID uuid.UUID `gorm:"type:uuid;not null;index:idx_quality_issue_speech_user,priority:1" json:"speech_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index:idx_quality_issue_speech_user,priority:2" json:"user_id"`

	IssueType IssueType     `gorm:"column:issue_type;type:text;not null;index" json:"issue_type"`
	Severity  IssueSeverity `gorm:"column:severity;type:text;not null;index" json:"severity"`
	Status    IssueStatus   `gorm:"column:status;type:text;not null;default:'unresolved';index" json:"status"`

	Description string         `gorm:"column:description;type:text;not null" json:"description"`
	Details     datatypes.JSON `gorm:"column:details;type:jsonb" json:"details,omitempty"`

	ResolvedAt     *time.Time `gorm:"column:resolved_at;index" json:"resolved_at,omitempty"`
	ResolvedBy     *uuid.UUID `gorm:"type:uuid;column:resolved_by" json:"resolved_by,omitempty"`
	ResolutionNote string     `gorm:"column:resolution_note;type:text" json:"resolution_note,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QualityIssue) TableName() string { return "quality_issue" }

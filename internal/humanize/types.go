package humanize

import (
	"time"

	"github.com/google/uuid"

	"github.com/speechsmith/speechsmith-backend/internal/analysis/stylometry"
	"github.com/speechsmith/speechsmith-backend/internal/humanize/editmerge"
)

const (
	StageRhetoric = "rhetoric"
	StagePersona  = "persona"
	StageCriticA  = "critic1"
	StageCriticB  = "critic2"
	StageReferee  = "referee"
)

type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

const (
	StatusSuccess        = "success"
	StatusPartialSuccess = "partial_success"
)

// StageTrace is one step of the pipeline trace. Serializable so a job result
// can carry the full execution history.
type StageTrace struct {
	Stage             string      `json:"stage"`
	Status            StageStatus `json:"status"`
	StartedAt         time.Time   `json:"started_at,omitempty"`
	EndedAt           time.Time   `json:"ended_at,omitempty"`
	DurationMs        int64       `json:"duration_ms"`
	Model             string      `json:"model,omitempty"`
	PromptFingerprint string      `json:"prompt_fingerprint,omitempty"`
	Error             string      `json:"error,omitempty"`
}

// Request is the pipeline entry contract.
type Request struct {
	SpeechID          uuid.UUID `json:"speech_id"`
	InputText         string    `json:"input_text"`
	RunRhetoric       bool      `json:"run_rhetoric"`
	RunPersona        bool      `json:"run_persona"`
	RunCritics        bool      `json:"run_critics"`
	TimeBudgetSeconds int       `json:"time_budget_seconds"`
}

// Change is one rewrite annotation reported by a generation stage.
type Change struct {
	Description string `json:"description"`
	Technique   string `json:"technique"`
}

// Suggestion is a span-level alternative proposed by a critic.
type Suggestion struct {
	Original     string   `json:"original"`
	Alternatives []string `json:"alternatives"`
	Confidence   float64  `json:"confidence"`
	Reasoning    string   `json:"reasoning"`
}

// CriticScores are the four review dimensions, each clamped to [0,10].
type CriticScores struct {
	Specificity    float64 `json:"specificity"`
	Freshness      float64 `json:"freshness"`
	Performability float64 `json:"performability"`
	PersonaFit     float64 `json:"persona_fit"`
}

// StageResult is the per-stage outcome exposed to callers.
type StageResult struct {
	OutputText string    `json:"output_text,omitempty"`
	PassID     uuid.UUID `json:"pass_id,omitempty"`
	FeedbackID uuid.UUID `json:"feedback_id,omitempty"`
	Changes    []Change  `json:"changes,omitempty"`
}

// Metrics summarize the final text and the run cost.
type Metrics struct {
	Stylometry     stylometry.Metrics `json:"stylometry"`
	StyleDistance  float64            `json:"style_distance"`
	ClicheDensity  float64            `json:"cliche_density"`
	TotalLatencyMs int64              `json:"total_latency_ms"`
	TotalTokens    int                `json:"total_tokens"`
}

// Result is the pipeline outcome. Status partial_success means the run halted
// partway: FinalText is the best text produced by the last successful stage
// (the original input when none succeeded) and Errors explains what stopped.
type Result struct {
	Status       string                 `json:"status"`
	FinalText    string                 `json:"final_text"`
	Trace        []StageTrace           `json:"trace"`
	PerStage     map[string]StageResult `json:"per_stage"`
	AppliedEdits []editmerge.Edit       `json:"applied_edits,omitempty"`
	Conflicts    []editmerge.Edit       `json:"conflicts,omitempty"`
	Metrics      Metrics                `json:"metrics"`
	Errors       []string               `json:"errors,omitempty"`
}

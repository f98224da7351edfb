package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/http/response"
	"github.com/speechsmith/speechsmith-backend/internal/services"
)

type SpeechHandler struct {
	speeches  services.SpeechService
	analyzer  services.AnalysisService
	humanizer services.HumanizationService
	gate      services.QualityGateService
}

func NewSpeechHandler(
	speeches services.SpeechService,
	analyzer services.AnalysisService,
	humanizer services.HumanizationService,
	gate services.QualityGateService,
) *SpeechHandler {
	return &SpeechHandler{
		speeches:  speeches,
		analyzer:  analyzer,
		humanizer: humanizer,
		gate:      gate,
	}
}

func speechIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_speech_id", err)
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/speeches
func (h *SpeechHandler) CreateSpeech(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var in services.CreateSpeechInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	sp, err := h.speeches.Create(c.Request.Context(), userID, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"speech": sp})
}

// GET /api/speeches
func (h *SpeechHandler) ListSpeeches(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	rows, err := h.speeches.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"speeches": rows})
}

// GET /api/speeches/:id
func (h *SpeechHandler) GetSpeech(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	speechID, ok := speechIDParam(c)
	if !ok {
		return
	}
	detail, err := h.speeches.Get(c.Request.Context(), userID, speechID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// POST /api/speeches/:id/analyze
func (h *SpeechHandler) AnalyzeSpeech(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	speechID, ok := speechIDParam(c)
	if !ok {
		return
	}
	sp, err := h.speeches.GetRaw(c.Request.Context(), userID, speechID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	// Optional override: analyze a candidate text instead of the stored body.
	var in struct {
		Text string `json:"text"`
	}
	_ = c.ShouldBindJSON(&in)
	text := in.Text
	if text == "" {
		text = sp.Body
	}

	report, err := h.analyzer.AnalyzeSpeech(c.Request.Context(), sp, text)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}

type humanizeBody struct {
	InputText         string `json:"input_text,omitempty"`
	RunRhetoric       *bool  `json:"run_rhetoric,omitempty"`
	RunPersona        *bool  `json:"run_persona,omitempty"`
	RunCritics        *bool  `json:"run_critics,omitempty"`
	TimeBudgetSeconds int    `json:"time_budget_seconds,omitempty"`
}

// All stages run unless the caller opts out per stage.
func (b humanizeBody) toRequest(speechID uuid.UUID) services.HumanizeRequest {
	enabled := func(v *bool) bool { return v == nil || *v }
	return services.HumanizeRequest{
		SpeechID:          speechID,
		InputText:         b.InputText,
		RunRhetoric:       enabled(b.RunRhetoric),
		RunPersona:        enabled(b.RunPersona),
		RunCritics:        enabled(b.RunCritics),
		TimeBudgetSeconds: b.TimeBudgetSeconds,
	}
}

// POST /api/speeches/:id/humanize
func (h *SpeechHandler) Humanize(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	speechID, ok := speechIDParam(c)
	if !ok {
		return
	}
	var body humanizeBody
	_ = c.ShouldBindJSON(&body)

	result, err := h.humanizer.Humanize(c.Request.Context(), userID, body.toRequest(speechID), nil)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}

// POST /api/speeches/:id/humanize/async
func (h *SpeechHandler) HumanizeAsync(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	speechID, ok := speechIDParam(c)
	if !ok {
		return
	}
	var body humanizeBody
	_ = c.ShouldBindJSON(&body)

	job, err := h.humanizer.EnqueueHumanize(c.Request.Context(), userID, body.toRequest(speechID))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

// GET /api/speeches/:id/passes
func (h *SpeechHandler) ListPasses(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	speechID, ok := speechIDParam(c)
	if !ok {
		return
	}
	passes, err := h.speeches.ListPasses(c.Request.Context(), userID, speechID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"passes": passes})
}

// GET /api/speeches/:id/export/validate
func (h *SpeechHandler) ValidateExport(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	speechID, ok := speechIDParam(c)
	if !ok {
		return
	}
	if _, err := h.speeches.GetRaw(c.Request.Context(), userID, speechID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	validation, err := h.gate.ValidateExport(c.Request.Context(), speechID, userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, validation)
}

// GET /api/speeches/:id/issues?status=unresolved
func (h *SpeechHandler) ListIssues(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	speechID, ok := speechIDParam(c)
	if !ok {
		return
	}
	var status *types.IssueStatus
	if raw := c.Query("status"); raw != "" {
		s := types.IssueStatus(raw)
		status = &s
	}
	issues, err := h.speeches.ListIssues(c.Request.Context(), userID, speechID, status)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"issues": issues})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/http/response"
	"github.com/speechsmith/speechsmith-backend/internal/services"
)

type IssueHandler struct {
	gate services.QualityGateService
}

func NewIssueHandler(gate services.QualityGateService) *IssueHandler {
	return &IssueHandler{gate: gate}
}

// POST /api/issues/:id/resolve
//
// Marks an issue resolved and returns the recomputed export gate for
// the owning speech, so the caller sees in one round trip whether the
// resolution unblocked export.
func (h *IssueHandler) ResolveIssue(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_issue_id", err)
		return
	}

	var body struct {
		Status types.IssueStatus `json:"status"`
		Note   string            `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	issue, err := h.gate.ResolveIssue(c.Request.Context(), userID, issueID, body.Status, body.Note, &userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	validation, err := h.gate.ValidateExport(c.Request.Context(), issue.SpeechID, userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"issue": issue, "validation": validation})
}

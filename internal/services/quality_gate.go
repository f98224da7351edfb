package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	speechrepo "github.com/speechsmith/speechsmith-backend/internal/data/repos/speech"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/observability"
	"github.com/speechsmith/speechsmith-backend/internal/platform/apierr"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

const gateRulesPathEnv = "QUALITY_GATE_RULES_PATH"

// severityOrder fixes the cap-check order so the reported reason is stable.
var severityOrder = []types.IssueSeverity{
	types.SeverityCritical,
	types.SeverityHigh,
	types.SeverityMedium,
	types.SeverityLow,
}

//go:embed gate.yaml
var defaultGateRules []byte

// GateRules drive the export decision. Loaded once at construction; the
// embedded defaults can be replaced wholesale via QUALITY_GATE_RULES_PATH.
type GateRules struct {
	BlockingRules       map[types.IssueType][]types.IssueSeverity `yaml:"blockingRules"`
	MaxUnresolvedIssues map[types.IssueSeverity]int               `yaml:"maxUnresolvedIssues"`
}

// Blocks reports whether an unresolved issue of this type+severity blocks
// export on its own.
func (r GateRules) Blocks(t types.IssueType, sev types.IssueSeverity) bool {
	for _, s := range r.BlockingRules[t] {
		if s == sev {
			return true
		}
	}
	return false
}

func LoadGateRules() (GateRules, error) {
	raw := defaultGateRules
	if path := os.Getenv(gateRulesPathEnv); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return GateRules{}, fmt.Errorf("read %s: %w", path, err)
		}
		raw = b
	}
	var rules GateRules
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return GateRules{}, fmt.Errorf("parse gate rules: %w", err)
	}
	if len(rules.BlockingRules) == 0 {
		return GateRules{}, fmt.Errorf("gate rules: blockingRules is empty")
	}
	return rules, nil
}

// ExportValidation is the quality-gate answer for one speech+user.
type ExportValidation struct {
	CanExport      bool                  `json:"can_export"`
	BlockingIssues []*types.QualityIssue `json:"blocking_issues"`
	Warnings       []*types.QualityIssue `json:"warnings"`
	TotalIssues    int                   `json:"total_issues"`
	ExportBlockID  *uuid.UUID            `json:"export_block_id,omitempty"`
	BlockReason    string                `json:"block_reason,omitempty"`
}

type QualityGateService interface {
	// ValidateExport computes the gate decision and reconciles the active
	// ExportBlock row to match it. Block maintenance failures are fatal:
	// export correctness depends on the block record being authoritative.
	ValidateExport(ctx context.Context, speechID, userID uuid.UUID) (*ExportValidation, error)

	// ResolveIssue transitions one unresolved issue to a terminal status.
	// It does not recompute the gate; callers re-run ValidateExport.
	ResolveIssue(ctx context.Context, userID, issueID uuid.UUID, resolution types.IssueStatus, note string, resolvedBy *uuid.UUID) (*types.QualityIssue, error)
}

type qualityGateService struct {
	db    *gorm.DB
	log   *logger.Logger
	rules GateRules

	issues speechrepo.QualityIssueRepo
	blocks speechrepo.ExportBlockRepo
}

func NewQualityGateService(
	db *gorm.DB,
	baseLog *logger.Logger,
	rules GateRules,
	issues speechrepo.QualityIssueRepo,
	blocks speechrepo.ExportBlockRepo,
) QualityGateService {
	return &qualityGateService{
		db:     db,
		log:    baseLog.With("service", "QualityGateService"),
		rules:  rules,
		issues: issues,
		blocks: blocks,
	}
}

func (s *qualityGateService) ValidateExport(ctx context.Context, speechID, userID uuid.UUID) (*ExportValidation, error) {
	if speechID == uuid.Nil || userID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "missing_ids", fmt.Errorf("speech and user ids required"))
	}

	open, err := s.issues.ListUnresolved(ctx, nil, speechID, userID)
	if err != nil {
		return nil, fmt.Errorf("list unresolved issues: %w", err)
	}

	v := &ExportValidation{
		BlockingIssues: []*types.QualityIssue{},
		Warnings:       []*types.QualityIssue{},
		TotalIssues:    len(open),
	}
	counts := map[types.IssueSeverity]int{}
	for _, issue := range open {
		counts[issue.Severity]++
		if s.rules.Blocks(issue.IssueType, issue.Severity) {
			v.BlockingIssues = append(v.BlockingIssues, issue)
		} else {
			v.Warnings = append(v.Warnings, issue)
		}
	}

	reason := ""
	if len(v.BlockingIssues) > 0 {
		reason = v.BlockingIssues[0].Description
	} else {
		for _, sev := range severityOrder {
			limit, capped := s.rules.MaxUnresolvedIssues[sev]
			if capped && counts[sev] > limit {
				reason = fmt.Sprintf("too many unresolved %s issues (%d > %d)", sev, counts[sev], limit)
				break
			}
		}
	}
	v.CanExport = reason == ""
	if metrics := observability.Current(); metrics != nil {
		metrics.IncGateDecision(!v.CanExport)
	}

	if !v.CanExport {
		related := make([]uuid.UUID, 0, len(open))
		for _, issue := range open {
			related = append(related, issue.ID)
		}
		raw, _ := json.Marshal(related)
		block, err := s.blocks.UpsertActive(ctx, nil, speechID, userID, reason, datatypes.JSON(raw))
		if err != nil {
			return nil, fmt.Errorf("upsert export block: %w", err)
		}
		if block != nil {
			v.ExportBlockID = &block.ID
		}
		v.BlockReason = reason
		return v, nil
	}

	if _, err := s.blocks.DeactivateActive(ctx, nil, speechID, userID); err != nil {
		return nil, fmt.Errorf("deactivate export block: %w", err)
	}
	return v, nil
}

func (s *qualityGateService) ResolveIssue(ctx context.Context, userID, issueID uuid.UUID, resolution types.IssueStatus, note string, resolvedBy *uuid.UUID) (*types.QualityIssue, error) {
	if issueID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "missing_issue_id", fmt.Errorf("issue id required"))
	}
	if !isTerminalIssueStatus(resolution) {
		return nil, apierr.New(http.StatusBadRequest, "invalid_resolution", fmt.Errorf("resolution %q is not allowed", resolution))
	}

	issue, err := s.issues.GetByID(ctx, nil, issueID)
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}
	if issue == nil || issue.UserID != userID {
		return nil, apierr.New(http.StatusNotFound, "issue_not_found", fmt.Errorf("issue not found"))
	}

	ok, err := s.issues.MarkResolved(ctx, nil, issueID, resolution, resolvedBy, note)
	if err != nil {
		return nil, fmt.Errorf("resolve issue: %w", err)
	}
	if !ok {
		return nil, apierr.New(http.StatusConflict, "issue_already_resolved", fmt.Errorf("issue is not unresolved"))
	}

	updated, err := s.issues.GetByID(ctx, nil, issueID)
	if err != nil {
		return nil, fmt.Errorf("reload issue: %w", err)
	}
	return updated, nil
}

func isTerminalIssueStatus(status types.IssueStatus) bool {
	for _, s := range types.TerminalIssueStatuses {
		if s == status {
			return true
		}
	}
	return false
}

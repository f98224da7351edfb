package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/speechsmith/speechsmith-backend/internal/analysis/risk"
	"github.com/speechsmith/speechsmith-backend/internal/humanize"
	"github.com/speechsmith/speechsmith-backend/internal/humanize/prompts"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
	"github.com/speechsmith/speechsmith-backend/internal/platform/openai"
)

// llmClaimDetector runs the claim_scan prompt against the generation backend
// and maps the structured output onto risk.FlaggedClaim. The classifier
// treats any error here as a degraded scan and keeps its regex results.
type llmClaimDetector struct {
	gen openai.Client
	log *logger.Logger
}

func NewLLMClaimDetector(baseLog *logger.Logger, gen openai.Client) risk.ClaimDetector {
	return &llmClaimDetector{
		gen: gen,
		log: baseLog.With("component", "LLMClaimDetector"),
	}
}

type claimScanOutput struct {
	Claims []struct {
		Text      string `json:"text"`
		ClaimType string `json:"claim_type"`
		RiskType  string `json:"risk_type"`
	} `json:"claims"`
}

func (d *llmClaimDetector) DetectClaims(ctx context.Context, text string) ([]risk.FlaggedClaim, error) {
	prompt, err := prompts.Build(prompts.PromptClaimScan, prompts.Input{Text: text})
	if err != nil {
		return nil, fmt.Errorf("build claim scan prompt: %w", err)
	}

	genRes, err := d.gen.Generate(ctx, openai.GenerateRequest{
		System:     prompt.System,
		User:       prompt.User,
		SchemaName: prompt.SchemaName,
		Schema:     prompt.Schema,
	})
	if err != nil {
		return nil, fmt.Errorf("claim scan generate: %w", err)
	}

	var out claimScanOutput
	if !humanize.ParseStructured(genRes.Text, &out) {
		return nil, fmt.Errorf("claim scan output unparsable")
	}

	claims := make([]risk.FlaggedClaim, 0, len(out.Claims))
	for _, c := range out.Claims {
		quoted := strings.TrimSpace(c.Text)
		if quoted == "" {
			continue
		}
		fc := risk.FlaggedClaim{
			Text:      quoted,
			ClaimType: strings.TrimSpace(c.ClaimType),
			RiskType:  strings.TrimSpace(c.RiskType),
		}
		if fc.ClaimType == "" {
			fc.ClaimType = "unsourced claim"
		}
		if fc.RiskType == "" {
			fc.RiskType = "general"
		}
		// Offsets are best-effort; the model quotes verbatim but may
		// normalize whitespace.
		if idx := strings.Index(text, quoted); idx >= 0 {
			fc.Start = idx
			fc.End = idx + len(quoted)
		}
		claims = append(claims, fc)
	}
	return claims, nil
}

// Package risk flags unsourced or high-liability claims and sensitive topics
// in speech text. The regex/lexicon path is deterministic and never fails for
// content reasons; the optional LLM claim scan degrades to regex-only results
// on any failure.
package risk

import (
	"context"
	"regexp"
	"strings"
)

type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// FlaggedClaim is one detected risky statement. RiskType drives the level
// decision: medical/legal/financial claims escalate to CRITICAL.
type FlaggedClaim struct {
	Text      string `json:"text"`
	ClaimType string `json:"claim_type"`
	RiskType  string `json:"risk_type"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

// TopicHit is one sensitive-topic keyword occurrence group.
type TopicHit struct {
	Topic    string   `json:"topic"`
	Keywords []string `json:"keywords"`
	Count    int      `json:"count"`
}

type Report struct {
	FlaggedClaims          []FlaggedClaim `json:"flagged_claims"`
	SensitiveTopics        []TopicHit     `json:"sensitive_topics"`
	RiskLevel              Level          `json:"risk_level"`
	RequiresAcknowledgment bool           `json:"requires_acknowledgment"`
	// ClaimScanDegraded is set when the LLM claim detector was configured but
	// failed; the report then carries regex-only claims.
	ClaimScanDegraded bool `json:"claim_scan_degraded,omitempty"`
}

// ClaimDetector is the optional generation-backed claim scan merged into the
// regex results.
type ClaimDetector interface {
	DetectClaims(ctx context.Context, text string) ([]FlaggedClaim, error)
}

type detector struct {
	re        *regexp.Regexp
	claimType string
	riskType  string
}

// Classifier combines fixed regex detectors with the topic lexicon.
// Read-only after construction; safe for concurrent use.
type Classifier struct {
	detectors []detector
	lexicon   Lexicon
	topicRes  map[string][]*regexp.Regexp
	claims    ClaimDetector
}

type Option func(*Classifier)

// WithClaimDetector enables the LLM claim scan.
func WithClaimDetector(cd ClaimDetector) Option {
	return func(c *Classifier) { c.claims = cd }
}

func New(lexicon Lexicon, opts ...Option) *Classifier {
	c := &Classifier{
		detectors: buildDetectors(),
		lexicon:   lexicon,
		topicRes:  map[string][]*regexp.Regexp{},
	}
	for topic, keywords := range lexicon {
		for _, kw := range keywords {
			c.topicRes[topic] = append(c.topicRes[topic],
				regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
		}
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func buildDetectors() []detector {
	return []detector{
		{
			re:        regexp.MustCompile(`(?i)\b(?:everyone|nobody|no one|all people|always|never)\b[^.!?]{0,80}\b(?:knows?|agrees?|believes?|thinks?|wants?|fails?|succeeds?)\b`),
			claimType: "absolute_statement",
			riskType:  "general",
		},
		{
			re:        regexp.MustCompile(`(?i)\b(?:studies|research|experts?|scientists|data)\s+(?:show|shows|say|says|prove|proves|confirm|confirms|suggest|suggests)\b`),
			claimType: "unsourced_attribution",
			riskType:  "general",
		},
		{
			re:        regexp.MustCompile(`(?i)\b\d{1,3}(?:\.\d+)?\s?(?:%|percent)\s+of\b`),
			claimType: "unsourced_statistic",
			riskType:  "statistical",
		},
		{
			re:        regexp.MustCompile(`(?i)\b(?:cures?|prevents?|heals?|reverses?|eliminates?)\b[^.!?]{0,60}\b(?:cancer|disease|illness|diabetes|depression|anxiety|aging|pain)\b`),
			claimType: "medical_claim",
			riskType:  "medical",
		},
		{
			re:        regexp.MustCompile(`(?i)\b(?:guaranteed?|risk[- ]free|double your|triple your|can'?t lose)\b[^.!?]{0,60}\b(?:returns?|profits?|income|money|investment|wealth)\b`),
			claimType: "financial_guarantee",
			riskType:  "financial",
		},
		{
			re:        regexp.MustCompile(`(?i)\b(?:the (?:best|worst|greatest|only)|most (?:important|powerful|effective)(?: \w+)? (?:ever|in history|of all time)|revolutionary|unprecedented)\b`),
			claimType: "superlative",
			riskType:  "general",
		},
	}
}

// Classify runs the regex detectors and lexicon scan, merges optional LLM
// claims, and derives the risk level:
//
//	CRITICAL  any claim with riskType medical/legal/financial
//	HIGH      more than 2 claims, or more than 1 sensitive topic
//	MEDIUM    any claim or topic present
//	LOW       otherwise
func (c *Classifier) Classify(ctx context.Context, text string) Report {
	report := Report{}

	for _, d := range c.detectors {
		for _, loc := range d.re.FindAllStringIndex(text, -1) {
			report.FlaggedClaims = append(report.FlaggedClaims, FlaggedClaim{
				Text:      text[loc[0]:loc[1]],
				ClaimType: d.claimType,
				RiskType:  d.riskType,
				Start:     loc[0],
				End:       loc[1],
			})
		}
	}

	for topic, res := range c.topicRes {
		hit := TopicHit{Topic: topic}
		seen := map[string]bool{}
		for _, re := range res {
			found := re.FindAllString(text, -1)
			if len(found) == 0 {
				continue
			}
			hit.Count += len(found)
			kw := strings.ToLower(found[0])
			if !seen[kw] {
				seen[kw] = true
				hit.Keywords = append(hit.Keywords, kw)
			}
		}
		if hit.Count > 0 {
			report.SensitiveTopics = append(report.SensitiveTopics, hit)
		}
	}

	if c.claims != nil {
		llmClaims, err := c.claims.DetectClaims(ctx, text)
		if err != nil {
			report.ClaimScanDegraded = true
		} else {
			report.FlaggedClaims = append(report.FlaggedClaims, llmClaims...)
		}
	}

	report.RiskLevel = decideLevel(report.FlaggedClaims, report.SensitiveTopics)
	report.RequiresAcknowledgment = report.RiskLevel == LevelHigh || report.RiskLevel == LevelCritical
	return report
}

func decideLevel(claims []FlaggedClaim, topics []TopicHit) Level {
	for _, cl := range claims {
		switch strings.ToLower(cl.RiskType) {
		case "medical", "legal", "financial":
			return LevelCritical
		}
	}
	if len(claims) > 2 || len(topics) > 1 {
		return LevelHigh
	}
	if len(claims) > 0 || len(topics) > 0 {
		return LevelMedium
	}
	return LevelLow
}

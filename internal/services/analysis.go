package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/speechsmith/speechsmith-backend/internal/analysis/cliche"
	"github.com/speechsmith/speechsmith-backend/internal/analysis/risk"
	"github.com/speechsmith/speechsmith-backend/internal/analysis/similarity"
	"github.com/speechsmith/speechsmith-backend/internal/analysis/stylometry"
	speechrepo "github.com/speechsmith/speechsmith-backend/internal/data/repos/speech"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/observability"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
	"github.com/speechsmith/speechsmith-backend/internal/utils"
)

// defaultSimilarityCorpusLimit bounds how many previously exported speeches
// feed the plagiarism comparison per run; SIMILARITY_CORPUS_LIMIT overrides it.
const defaultSimilarityCorpusLimit = 50

// AnalysisReport is the aggregate of one AnalyzeSpeech run. Every analyzer
// section is always present; a failed analyzer contributes its zero value.
type AnalysisReport struct {
	SpeechID uuid.UUID `json:"speech_id"`

	Cliche        cliche.Analysis    `json:"cliche"`
	Stylometry    stylometry.Metrics `json:"stylometry"`
	StyleDistance float64            `json:"style_distance"`
	Risk          risk.Report        `json:"risk"`
	Similarity    similarity.Result  `json:"similarity"`

	IssuesCreated   []*types.QualityIssue `json:"issues_created"`
	PersistWarnings []string              `json:"persist_warnings,omitempty"`
}

type AnalysisService interface {
	// AnalyzeSpeech runs every analyzer against text, records the cliche
	// analysis, and materializes fresh quality issues. Analyzer failures
	// degrade to zero signals; only issue persistence is fatal.
	AnalyzeSpeech(ctx context.Context, sp *types.Speech, text string) (*AnalysisReport, error)
}

type analysisService struct {
	db  *gorm.DB
	log *logger.Logger

	matcher    *cliche.Matcher
	classifier *risk.Classifier

	speeches speechrepo.SpeechRepo
	cliches  speechrepo.ClicheAnalysisRepo
	issues   speechrepo.QualityIssueRepo
	notify   JobNotifier

	corpusLimit int
}

func NewAnalysisService(
	db *gorm.DB,
	baseLog *logger.Logger,
	matcher *cliche.Matcher,
	classifier *risk.Classifier,
	speeches speechrepo.SpeechRepo,
	cliches speechrepo.ClicheAnalysisRepo,
	issues speechrepo.QualityIssueRepo,
	notify JobNotifier,
) AnalysisService {
	return &analysisService{
		db:         db,
		log:        baseLog.With("service", "AnalysisService"),
		matcher:    matcher,
		classifier: classifier,
		speeches:   speeches,
		cliches:    cliches,
		issues:     issues,
		notify:     notify,

		corpusLimit: utils.GetEnvAsInt("SIMILARITY_CORPUS_LIMIT", defaultSimilarityCorpusLimit, baseLog),
	}
}

func (s *analysisService) AnalyzeSpeech(ctx context.Context, sp *types.Speech, text string) (*AnalysisReport, error) {
	if sp == nil || sp.ID == uuid.Nil {
		return nil, fmt.Errorf("analyze speech: missing speech")
	}

	report := &AnalysisReport{SpeechID: sp.ID}

	// Four bounded advisory tasks; each writes only its own report section.
	// None of them returns an error into the group: a failed analyzer is
	// logged and leaves its zero value in place.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.matcher != nil {
			report.Cliche = s.matcher.Analyze(text)
		}
		return nil
	})
	g.Go(func() error {
		report.Stylometry = stylometry.Analyze(text)
		report.StyleDistance = stylometry.Distance(report.Stylometry, stylometry.Profile{
			AvgSentenceLength:  sp.TargetAvgSentenceLen,
			PunctuationDensity: sp.TargetPunctuationDensity,
		})
		return nil
	})
	g.Go(func() error {
		if s.classifier != nil {
			report.Risk = s.classifier.Classify(gctx, text)
		}
		return nil
	})
	g.Go(func() error {
		result, err := s.similarityAgainstExported(gctx, sp, text)
		if err != nil {
			s.log.Warn("similarity analyzer degraded", "speech_id", sp.ID.String(), "error", err)
			return nil
		}
		report.Similarity = result
		return nil
	})
	_ = g.Wait()

	s.persistClicheAnalysis(ctx, report)

	created, err := s.materializeIssues(ctx, sp, report)
	if err != nil {
		return nil, fmt.Errorf("materialize quality issues: %w", err)
	}
	report.IssuesCreated = created

	if s.notify != nil {
		s.notify.AnalysisCompleted(sp.UserID, sp.ID, map[string]any{
			"cliche_density":   report.Cliche.Density,
			"style_distance":   report.StyleDistance,
			"risk_level":       report.Risk.RiskLevel,
			"similarity_score": report.Similarity.Score,
			"issues_created":   len(created),
		})
	}
	return report, nil
}

func (s *analysisService) similarityAgainstExported(ctx context.Context, sp *types.Speech, text string) (similarity.Result, error) {
	exported, err := s.speeches.ListExportedForUser(ctx, nil, sp.UserID, sp.ID, s.corpusLimit)
	if err != nil {
		return similarity.Result{}, err
	}
	corpus := make([]similarity.CorpusEntry, 0, len(exported))
	for _, e := range exported {
		corpus = append(corpus, similarity.CorpusEntry{SpeechID: e.ID, Text: e.Body})
	}
	return similarity.New(corpus).Analyze(text), nil
}

// persistClicheAnalysis is an analytics write: failures become a report
// warning, never an error.
func (s *analysisService) persistClicheAnalysis(ctx context.Context, report *AnalysisReport) {
	if s.cliches == nil {
		return
	}
	row := &types.ClicheAnalysis{
		SpeechID:     report.SpeechID,
		Density:      report.Cliche.Density,
		TotalTokens:  report.Cliche.TotalTokens,
		MatchCount:   len(report.Cliche.Matches),
		NeedsRewrite: report.Cliche.NeedsRewrite,
	}
	if raw, err := json.Marshal(report.Cliche.Matches); err == nil {
		row.Matches = datatypes.JSON(raw)
	}
	if _, err := s.cliches.Create(ctx, nil, []*types.ClicheAnalysis{row}); err != nil {
		s.log.Warn("cliche analysis persist failed", "speech_id", report.SpeechID.String(), "error", err)
		report.PersistWarnings = append(report.PersistWarnings, fmt.Sprintf("cliche analysis: %v", err))
	}
}

// materializeIssues turns fresh analyzer signals into quality_issue rows.
// An issue identical to one still unresolved is skipped; resolved issues are
// never reopened, so a re-detection after resolution creates a new row.
func (s *analysisService) materializeIssues(ctx context.Context, sp *types.Speech, report *AnalysisReport) ([]*types.QualityIssue, error) {
	candidates := issueCandidates(sp, report)
	if len(candidates) == 0 {
		return []*types.QualityIssue{}, nil
	}

	open, err := s.issues.ListUnresolved(ctx, nil, sp.ID, sp.UserID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(open))
	for _, it := range open {
		seen[string(it.IssueType)+"\x00"+it.Description] = true
	}

	fresh := make([]*types.QualityIssue, 0, len(candidates))
	for _, c := range candidates {
		if seen[string(c.IssueType)+"\x00"+c.Description] {
			continue
		}
		fresh = append(fresh, c)
	}
	created, err := s.issues.Create(ctx, nil, fresh)
	if err != nil {
		return nil, err
	}
	if metrics := observability.Current(); metrics != nil {
		for _, it := range created {
			metrics.IncQualityIssueFound(string(it.IssueType), string(it.Severity))
		}
	}
	return created, nil
}

func issueCandidates(sp *types.Speech, report *AnalysisReport) []*types.QualityIssue {
	var out []*types.QualityIssue

	newIssue := func(t types.IssueType, sev types.IssueSeverity, desc string, details any) {
		row := &types.QualityIssue{
			SpeechID:    sp.ID,
			UserID:      sp.UserID,
			IssueType:   t,
			Severity:    sev,
			Status:      types.IssueStatusUnresolved,
			Description: desc,
		}
		if details != nil {
			if raw, err := json.Marshal(details); err == nil {
				row.Details = datatypes.JSON(raw)
			}
		}
		out = append(out, row)
	}

	if report.Cliche.NeedsRewrite {
		sev := types.SeverityMedium
		if report.Cliche.Density > 2 {
			sev = types.SeverityHigh
		}
		newIssue(types.IssueTypeCliche, sev,
			fmt.Sprintf("cliche density %.1f per 100 tokens exceeds the rewrite threshold", report.Cliche.Density),
			map[string]any{
				"density":     report.Cliche.Density,
				"match_count": len(report.Cliche.Matches),
			})
	}

	for _, claim := range report.Risk.FlaggedClaims {
		sev := types.SeverityMedium
		switch claim.RiskType {
		case "medical", "legal", "financial":
			sev = types.SeverityCritical
		}
		newIssue(types.IssueTypeRiskClaim, sev,
			fmt.Sprintf("%s: %q", claim.ClaimType, claim.Text),
			claim)
	}

	for _, topic := range report.Risk.SensitiveTopics {
		sev := types.SeverityLow
		if topic.Count > 1 {
			sev = types.SeverityMedium
		}
		newIssue(types.IssueTypeSensitiveTopic, sev,
			fmt.Sprintf("sensitive topic %q mentioned %d time(s)", topic.Topic, topic.Count),
			topic)
	}

	for _, hit := range report.Similarity.Hits {
		sev := types.SeverityMedium
		if hit.Kind == similarity.KindNearDuplicate {
			sev = types.SeverityHigh
		}
		newIssue(types.IssueTypePlagiarism, sev,
			fmt.Sprintf("%s of a sentence from a previous speech (score %.2f)", hit.Kind, hit.Score),
			hit)
	}

	return out
}

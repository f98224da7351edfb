package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	speechrepo "github.com/speechsmith/speechsmith-backend/internal/data/repos/speech"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/platform/apierr"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

const (
	defaultTargetAvgSentenceLen     = 17.0
	defaultTargetPunctuationDensity = 0.1
)

type CreateSpeechInput struct {
	Title                    string  `json:"title"`
	Body                     string  `json:"body"`
	TargetAvgSentenceLen     float64 `json:"target_avg_sentence_len,omitempty"`
	TargetPunctuationDensity float64 `json:"target_punctuation_density,omitempty"`
}

// SpeechDetail is a speech plus its most recent cliche analysis, when one
// exists.
type SpeechDetail struct {
	Speech         *types.Speech         `json:"speech"`
	LatestAnalysis *types.ClicheAnalysis `json:"latest_analysis,omitempty"`
}

// PassWithFeedback is one pipeline pass joined with the critic feedback rows
// attached to it.
type PassWithFeedback struct {
	Pass     *types.HumanizationPass `json:"pass"`
	Feedback []*types.CriticFeedback `json:"feedback,omitempty"`
}

type SpeechService interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateSpeechInput) (*types.Speech, error)
	Get(ctx context.Context, userID, speechID uuid.UUID) (*SpeechDetail, error)
	GetRaw(ctx context.Context, userID, speechID uuid.UUID) (*types.Speech, error)
	List(ctx context.Context, userID uuid.UUID) ([]*types.Speech, error)
	ListPasses(ctx context.Context, userID, speechID uuid.UUID) ([]*PassWithFeedback, error)
	ListIssues(ctx context.Context, userID, speechID uuid.UUID, status *types.IssueStatus) ([]*types.QualityIssue, error)
}

type speechService struct {
	db  *gorm.DB
	log *logger.Logger

	speeches speechrepo.SpeechRepo
	passes   speechrepo.HumanizationPassRepo
	critics  speechrepo.CriticFeedbackRepo
	cliches  speechrepo.ClicheAnalysisRepo
	issues   speechrepo.QualityIssueRepo
}

func NewSpeechService(
	db *gorm.DB,
	baseLog *logger.Logger,
	speeches speechrepo.SpeechRepo,
	passes speechrepo.HumanizationPassRepo,
	critics speechrepo.CriticFeedbackRepo,
	cliches speechrepo.ClicheAnalysisRepo,
	issues speechrepo.QualityIssueRepo,
) SpeechService {
	return &speechService{
		db:       db,
		log:      baseLog.With("service", "SpeechService"),
		speeches: speeches,
		passes:   passes,
		critics:  critics,
		cliches:  cliches,
		issues:   issues,
	}
}

func (s *speechService) Create(ctx context.Context, userID uuid.UUID, in CreateSpeechInput) (*types.Speech, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "missing_user", fmt.Errorf("user id required"))
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_title", fmt.Errorf("title required"))
	}
	if strings.TrimSpace(in.Body) == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_body", fmt.Errorf("body required"))
	}
	if in.TargetAvgSentenceLen <= 0 {
		in.TargetAvgSentenceLen = defaultTargetAvgSentenceLen
	}
	if in.TargetPunctuationDensity <= 0 {
		in.TargetPunctuationDensity = defaultTargetPunctuationDensity
	}

	row := &types.Speech{
		UserID:                   userID,
		Title:                    strings.TrimSpace(in.Title),
		Body:                     in.Body,
		Status:                   types.SpeechStatusDraft,
		TargetAvgSentenceLen:     in.TargetAvgSentenceLen,
		TargetPunctuationDensity: in.TargetPunctuationDensity,
	}
	rows, err := s.speeches.Create(ctx, nil, []*types.Speech{row})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	return rows[0], nil
}

func (s *speechService) Get(ctx context.Context, userID, speechID uuid.UUID) (*SpeechDetail, error) {
	sp, err := s.GetRaw(ctx, userID, speechID)
	if err != nil {
		return nil, err
	}
	detail := &SpeechDetail{Speech: sp}
	latest, err := s.cliches.LatestBySpeech(ctx, nil, sp.ID)
	if err != nil {
		s.log.Warn("latest analysis lookup failed", "speech_id", sp.ID.String(), "error", err)
		return detail, nil
	}
	detail.LatestAnalysis = latest
	return detail, nil
}

func (s *speechService) GetRaw(ctx context.Context, userID, speechID uuid.UUID) (*types.Speech, error) {
	sp, err := s.speeches.GetByIDForUser(ctx, nil, speechID, userID)
	if err != nil {
		return nil, fmt.Errorf("load speech: %w", err)
	}
	if sp == nil {
		return nil, apierr.New(http.StatusNotFound, "speech_not_found", fmt.Errorf("speech not found"))
	}
	return sp, nil
}

func (s *speechService) List(ctx context.Context, userID uuid.UUID) ([]*types.Speech, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "missing_user", fmt.Errorf("user id required"))
	}
	return s.speeches.ListByUser(ctx, nil, userID)
}

func (s *speechService) ListPasses(ctx context.Context, userID, speechID uuid.UUID) ([]*PassWithFeedback, error) {
	sp, err := s.GetRaw(ctx, userID, speechID)
	if err != nil {
		return nil, err
	}
	passes, err := s.passes.ListBySpeech(ctx, nil, sp.ID)
	if err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(passes))
	for _, p := range passes {
		ids = append(ids, p.ID)
	}
	feedback, err := s.critics.ListByPassIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("list critic feedback: %w", err)
	}
	byPass := make(map[uuid.UUID][]*types.CriticFeedback, len(feedback))
	for _, f := range feedback {
		byPass[f.PassID] = append(byPass[f.PassID], f)
	}

	out := make([]*PassWithFeedback, 0, len(passes))
	for _, p := range passes {
		out = append(out, &PassWithFeedback{Pass: p, Feedback: byPass[p.ID]})
	}
	return out, nil
}

func (s *speechService) ListIssues(ctx context.Context, userID, speechID uuid.UUID, status *types.IssueStatus) ([]*types.QualityIssue, error) {
	sp, err := s.GetRaw(ctx, userID, speechID)
	if err != nil {
		return nil, err
	}
	return s.issues.ListBySpeechUser(ctx, nil, sp.ID, userID, status)
}

package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/speechsmith/speechsmith-backend/internal/analysis/cliche"
	"github.com/speechsmith/speechsmith-backend/internal/analysis/risk"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
)

type fakeSpeechRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*types.Speech

	exportedErr error
}

func newFakeSpeechRepo() *fakeSpeechRepo {
	return &fakeSpeechRepo{rows: map[uuid.UUID]*types.Speech{}}
}

func (r *fakeSpeechRepo) add(sp *types.Speech) *types.Speech {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sp.ID == uuid.Nil {
		sp.ID = uuid.New()
	}
	r.rows[sp.ID] = sp
	return sp
}

func (r *fakeSpeechRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Speech) ([]*types.Speech, error) {
	for _, row := range rows {
		r.add(row)
	}
	return rows, nil
}

func (r *fakeSpeechRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Speech, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id], nil
}

func (r *fakeSpeechRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Speech, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.rows[id]
	if row == nil || row.UserID != userID {
		return nil, nil
	}
	return row, nil
}

func (r *fakeSpeechRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Speech, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Speech
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeSpeechRepo) ListExportedForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, excludeID uuid.UUID, limit int) ([]*types.Speech, error) {
	if r.exportedErr != nil {
		return nil, r.exportedErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Speech
	for _, row := range r.rows {
		if row.UserID != userID || row.Status != types.SpeechStatusExported || row.ID == excludeID {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeSpeechRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil
	}
	if status, ok := updates["status"]; ok {
		if s, ok := status.(types.SpeechStatus); ok {
			row.Status = s
		}
	}
	return nil
}

type fakeClicheRepo struct {
	mu        sync.Mutex
	rows      []*types.ClicheAnalysis
	createErr error
}

func (r *fakeClicheRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ClicheAnalysis) ([]*types.ClicheAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		r.rows = append(r.rows, row)
	}
	return rows, nil
}

func (r *fakeClicheRepo) LatestBySpeech(ctx context.Context, tx *gorm.DB, speechID uuid.UUID) (*types.ClicheAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].SpeechID == speechID {
			return r.rows[i], nil
		}
	}
	return nil, nil
}

func (r *fakeClicheRepo) ListBySpeech(ctx context.Context, tx *gorm.DB, speechID uuid.UUID, limit int) ([]*types.ClicheAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.ClicheAnalysis
	for _, row := range r.rows {
		if row.SpeechID == speechID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	analyses int
}

func (n *fakeNotifier) JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int) {}
func (n *fakeNotifier) JobFailed(userID uuid.UUID, job *types.JobRun, stage, errorMessage string)  {}
func (n *fakeNotifier) JobDone(userID uuid.UUID, job *types.JobRun)                                {}
func (n *fakeNotifier) AnalysisCompleted(userID, speechID uuid.UUID, summary any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.analyses++
}

func testMatcher(t *testing.T) *cliche.Matcher {
	t.Helper()
	return cliche.New(cliche.Table{
		"business": {"think outside the box"},
		"general":  {"at the end of the day"},
	})
}

func testClassifier(t *testing.T) *risk.Classifier {
	t.Helper()
	return risk.New(risk.Lexicon{
		"politics": {"election"},
	})
}

func newTestAnalysisService(t *testing.T, speeches *fakeSpeechRepo, cliches *fakeClicheRepo, issues *fakeIssueRepo, notify *fakeNotifier) AnalysisService {
	t.Helper()
	return NewAnalysisService(nil, testLogger(t), testMatcher(t), testClassifier(t), speeches, cliches, issues, notify)
}

func TestAnalyzeSpeechAggregatesSignals(t *testing.T) {
	speeches := newFakeSpeechRepo()
	userID := uuid.New()
	sp := speeches.add(&types.Speech{
		UserID:                   userID,
		Title:                    "keynote",
		Body:                     "draft",
		Status:                   types.SpeechStatusDraft,
		TargetAvgSentenceLen:     17,
		TargetPunctuationDensity: 0.1,
	})
	speeches.add(&types.Speech{
		UserID: userID,
		Title:  "previous",
		Body:   "We must invest in renewable energy today. The grid needs modern storage.",
		Status: types.SpeechStatusExported,
	})

	cliches := &fakeClicheRepo{}
	issues := newFakeIssueRepo()
	notify := &fakeNotifier{}
	svc := newTestAnalysisService(t, speeches, cliches, issues, notify)

	text := "At the end of the day we think outside the box. " +
		"We must invest in renewable energy today. " +
		"The election will decide everything."
	report, err := svc.AnalyzeSpeech(context.Background(), sp, text)
	if err != nil {
		t.Fatalf("AnalyzeSpeech: %v", err)
	}

	if len(report.Cliche.Matches) == 0 {
		t.Fatalf("expected cliche matches")
	}
	if report.Stylometry.WordCount == 0 {
		t.Fatalf("expected stylometry metrics")
	}
	if len(report.Risk.SensitiveTopics) == 0 {
		t.Fatalf("expected the election topic hit")
	}
	if len(report.Similarity.Hits) == 0 {
		t.Fatalf("expected a similarity hit against the exported speech")
	}
	if len(cliches.rows) != 1 {
		t.Fatalf("expected one persisted cliche analysis, got %d", len(cliches.rows))
	}
	if len(report.IssuesCreated) == 0 {
		t.Fatalf("expected materialized issues")
	}
	hasType := func(want types.IssueType) bool {
		for _, it := range report.IssuesCreated {
			if it.IssueType == want {
				return true
			}
		}
		return false
	}
	if !hasType(types.IssueTypeSensitiveTopic) {
		t.Fatalf("expected a sensitive_topic issue")
	}
	if !hasType(types.IssueTypePlagiarism) {
		t.Fatalf("expected a plagiarism issue")
	}
	if notify.analyses != 1 {
		t.Fatalf("expected one analysis.completed notification, got %d", notify.analyses)
	}
}

func TestAnalyzeSpeechSkipsDuplicateOpenIssues(t *testing.T) {
	speeches := newFakeSpeechRepo()
	sp := speeches.add(&types.Speech{UserID: uuid.New(), Title: "t", Body: "b", TargetAvgSentenceLen: 17, TargetPunctuationDensity: 0.1})

	issues := newFakeIssueRepo()
	svc := newTestAnalysisService(t, speeches, &fakeClicheRepo{}, issues, &fakeNotifier{})

	text := "The election will decide everything."
	first, err := svc.AnalyzeSpeech(context.Background(), sp, text)
	if err != nil {
		t.Fatalf("first AnalyzeSpeech: %v", err)
	}
	if len(first.IssuesCreated) == 0 {
		t.Fatalf("expected issues on first run")
	}

	second, err := svc.AnalyzeSpeech(context.Background(), sp, text)
	if err != nil {
		t.Fatalf("second AnalyzeSpeech: %v", err)
	}
	if len(second.IssuesCreated) != 0 {
		t.Fatalf("expected identical open issues to be skipped, got %d new", len(second.IssuesCreated))
	}

	// Resolving reopens the door: a re-detection creates a fresh row.
	for _, it := range first.IssuesCreated {
		if _, err := issues.MarkResolved(context.Background(), nil, it.ID, types.IssueStatusResolved, nil, ""); err != nil {
			t.Fatalf("MarkResolved: %v", err)
		}
	}
	third, err := svc.AnalyzeSpeech(context.Background(), sp, text)
	if err != nil {
		t.Fatalf("third AnalyzeSpeech: %v", err)
	}
	if len(third.IssuesCreated) != len(first.IssuesCreated) {
		t.Fatalf("expected re-detection after resolve: got %d want %d", len(third.IssuesCreated), len(first.IssuesCreated))
	}
}

func TestAnalyzeSpeechDegradations(t *testing.T) {
	t.Run("similarity corpus failure degrades to empty", func(t *testing.T) {
		speeches := newFakeSpeechRepo()
		sp := speeches.add(&types.Speech{UserID: uuid.New(), Title: "t", Body: "b", TargetAvgSentenceLen: 17, TargetPunctuationDensity: 0.1})
		speeches.exportedErr = fmt.Errorf("db down")

		svc := newTestAnalysisService(t, speeches, &fakeClicheRepo{}, newFakeIssueRepo(), &fakeNotifier{})
		report, err := svc.AnalyzeSpeech(context.Background(), sp, "A plain sentence about logistics.")
		if err != nil {
			t.Fatalf("AnalyzeSpeech: %v", err)
		}
		if len(report.Similarity.Hits) != 0 || report.Similarity.Score != 0 {
			t.Fatalf("expected zero similarity signal, got %+v", report.Similarity)
		}
	})

	t.Run("cliche persist failure is a warning", func(t *testing.T) {
		speeches := newFakeSpeechRepo()
		sp := speeches.add(&types.Speech{UserID: uuid.New(), Title: "t", Body: "b", TargetAvgSentenceLen: 17, TargetPunctuationDensity: 0.1})
		cliches := &fakeClicheRepo{createErr: fmt.Errorf("insert failed")}

		svc := newTestAnalysisService(t, speeches, cliches, newFakeIssueRepo(), &fakeNotifier{})
		report, err := svc.AnalyzeSpeech(context.Background(), sp, "A plain sentence about logistics.")
		if err != nil {
			t.Fatalf("AnalyzeSpeech should not fail on analytics persist: %v", err)
		}
		if len(report.PersistWarnings) != 1 || !strings.Contains(report.PersistWarnings[0], "cliche analysis") {
			t.Fatalf("expected a cliche persist warning, got %v", report.PersistWarnings)
		}
	})

	t.Run("issue persist failure is fatal", func(t *testing.T) {
		speeches := newFakeSpeechRepo()
		sp := speeches.add(&types.Speech{UserID: uuid.New(), Title: "t", Body: "b", TargetAvgSentenceLen: 17, TargetPunctuationDensity: 0.1})
		issues := newFakeIssueRepo()
		issues.createErr = fmt.Errorf("insert failed")

		svc := newTestAnalysisService(t, speeches, &fakeClicheRepo{}, issues, &fakeNotifier{})
		if _, err := svc.AnalyzeSpeech(context.Background(), sp, "The election will decide everything."); err == nil {
			t.Fatalf("expected issue persistence failure to be fatal")
		}
	})
}

package humanize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/speechsmith/speechsmith-backend/internal/analysis/cliche"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/humanize/prompts"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
	"github.com/speechsmith/speechsmith-backend/internal/platform/openai"
)

func init() {
	prompts.RegisterAll()
}

// fakeGen scripts responses by schema name; critic responses can differ by
// which focus string appears in the user prompt.
type fakeGen struct {
	mu        sync.Mutex
	responses map[string]string
	failOn    map[string]error
	calls     []string
}

func (f *fakeGen) Generate(_ context.Context, req openai.GenerateRequest) (openai.GenerateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := req.SchemaName
	if key == "critic_review" {
		if strings.Contains(req.User, "concrete evidence") {
			key = "critic_a"
		} else {
			key = "critic_b"
		}
	}
	f.calls = append(f.calls, key)
	if err := f.failOn[key]; err != nil {
		return openai.GenerateResult{}, err
	}
	return openai.GenerateResult{
		Text:      f.responses[key],
		Model:     "fake-model",
		LatencyMs: 5,
		Usage:     openai.TokenUsage{TotalTokens: 10},
	}, nil
}

func (f *fakeGen) DefaultModel() string { return "fake-model" }

type fakePassRepo struct {
	mu   sync.Mutex
	rows []*types.HumanizationPass
}

func (f *fakePassRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.HumanizationPass) ([]*types.HumanizationPass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		r.ID = uuid.New()
		f.rows = append(f.rows, r)
	}
	return rows, nil
}

func (f *fakePassRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.HumanizationPass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakePassRepo) ListBySpeech(_ context.Context, _ *gorm.DB, speechID uuid.UUID) ([]*types.HumanizationPass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.HumanizationPass
	for _, r := range f.rows {
		if r.SpeechID == speechID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePassRepo) MaxPassOrder(_ context.Context, _ *gorm.DB, speechID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, r := range f.rows {
		if r.SpeechID == speechID && r.PassOrder > max {
			max = r.PassOrder
		}
	}
	return max, nil
}

type fakeCriticRepo struct {
	mu            sync.Mutex
	rows          []*types.CriticFeedback
	acceptedEdits map[uuid.UUID]datatypes.JSON
}

func (f *fakeCriticRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.CriticFeedback) ([]*types.CriticFeedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		r.ID = uuid.New()
		f.rows = append(f.rows, r)
	}
	return rows, nil
}

func (f *fakeCriticRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.CriticFeedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeCriticRepo) ListByPassIDs(_ context.Context, _ *gorm.DB, passIDs []uuid.UUID) ([]*types.CriticFeedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.CriticFeedback
	for _, r := range f.rows {
		for _, id := range passIDs {
			if r.PassID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *fakeCriticRepo) SetAcceptedEdits(_ context.Context, _ *gorm.DB, id uuid.UUID, acceptedEdits datatypes.JSON) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acceptedEdits == nil {
		f.acceptedEdits = map[uuid.UUID]datatypes.JSON{}
	}
	f.acceptedEdits[id] = acceptedEdits
	return nil
}

func testSpeech() *types.Speech {
	return &types.Speech{
		ID:                       uuid.New(),
		UserID:                   uuid.New(),
		TargetAvgSentenceLen:     17,
		TargetPunctuationDensity: 0.1,
	}
}

func testOrchestrator(gen *fakeGen) (*Orchestrator, *fakePassRepo, *fakeCriticRepo) {
	log, err := logger.New("development")
	if err != nil {
		panic(err)
	}
	table, err := cliche.DefaultTable()
	if err != nil {
		panic(err)
	}
	passes := &fakePassRepo{}
	critics := &fakeCriticRepo{}
	return NewOrchestrator(gen, passes, critics, cliche.New(table), log), passes, critics
}

func emptyCritic() string {
	return `{"scores":{"specificity":7,"freshness":6,"performability":8,"persona_fit":7},"overall":7,"suggestions":[],"edits":[],"feedback":"solid"}`
}

func TestRunFullChainSuccess(t *testing.T) {
	gen := &fakeGen{responses: map[string]string{
		"rhetoric_pass": `{"rewritten_text":"rhetoric output text","changes":[{"description":"replaced cliche","technique":"concrete_image"}]}`,
		"persona_pass":  `{"rewritten_text":"persona output text","changes":[]}`,
		"critic_a":      emptyCritic(),
		"critic_b":      emptyCritic(),
		"referee_merge": `{"accepted_edits":[],"rationale":"nothing to change"}`,
	}}
	o, passes, critics := testOrchestrator(gen)

	sp := testSpeech()
	res, err := o.Run(context.Background(), sp, Request{
		SpeechID:    sp.ID,
		InputText:   "We need to think outside the box today.",
		RunRhetoric: true,
		RunPersona:  true,
		RunCritics:  true,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status: %s errors: %v", res.Status, res.Errors)
	}
	if res.FinalText != "persona output text" {
		t.Fatalf("final text: %q", res.FinalText)
	}
	if len(res.Trace) != 5 {
		t.Fatalf("trace length: %d", len(res.Trace))
	}
	for _, tr := range res.Trace {
		if tr.Status != StageCompleted {
			t.Fatalf("stage %s: %s (%s)", tr.Stage, tr.Status, tr.Error)
		}
		if tr.PromptFingerprint == "" {
			t.Fatalf("stage %s missing prompt fingerprint", tr.Stage)
		}
	}
	// Pass orders strictly increasing across the chain.
	if len(passes.rows) != 5 {
		t.Fatalf("pass rows: %d", len(passes.rows))
	}
	seen := map[int]bool{}
	for _, r := range passes.rows {
		if r.PassOrder < 1 || r.PassOrder > 5 || seen[r.PassOrder] {
			t.Fatalf("bad pass order %d", r.PassOrder)
		}
		seen[r.PassOrder] = true
	}
	if len(critics.rows) != 2 {
		t.Fatalf("critic rows: %d", len(critics.rows))
	}
	// Referee stamped accepted edits (empty lists) on both critics.
	if len(critics.acceptedEdits) != 2 {
		t.Fatalf("accepted edits updates: %d", len(critics.acceptedEdits))
	}
}

func TestRunRhetoricFailureIsPartialSuccess(t *testing.T) {
	gen := &fakeGen{
		responses: map[string]string{},
		failOn:    map[string]error{"rhetoric_pass": errors.New("quota exceeded")},
	}
	o, passes, _ := testOrchestrator(gen)

	sp := testSpeech()
	input := "The original untouched text."
	res, err := o.Run(context.Background(), sp, Request{
		SpeechID:    sp.ID,
		InputText:   input,
		RunRhetoric: true,
		RunPersona:  true,
		RunCritics:  true,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusPartialSuccess {
		t.Fatalf("status: %s", res.Status)
	}
	if res.Trace[0].Status != StageFailed {
		t.Fatalf("trace[0]: %+v", res.Trace[0])
	}
	if res.FinalText != input {
		t.Fatalf("final text: %q", res.FinalText)
	}
	if len(res.Trace) != 1 {
		t.Fatalf("later stages should not run: %+v", res.Trace)
	}
	if len(res.Errors) == 0 {
		t.Fatal("errors list empty")
	}
	if len(passes.rows) != 0 {
		t.Fatalf("no pass rows expected: %d", len(passes.rows))
	}
}

func TestRunCriticEditsMergedByScore(t *testing.T) {
	// Both critics target span [10,20); the referee accepts both and the
	// merger keeps the 0.9-scored replacement.
	input := "0123456789abcdefghij tail of the speech."
	criticEdit := func(score float64) string {
		return fmt.Sprintf(
			`{"scores":{"specificity":5,"freshness":5,"performability":5,"persona_fit":5},"overall":5,"suggestions":[],"edits":[{"start":10,"end":20,"replacement":"S%.1f","score":%.1f}],"feedback":"x"}`,
			score, score)
	}
	gen := &fakeGen{responses: map[string]string{
		"critic_a": criticEdit(0.9),
		"critic_b": criticEdit(0.6),
		"referee_merge": `{"accepted_edits":[` +
			`{"start":10,"end":20,"replacement":"S0.9","score":0.9,"source":"critic1"},` +
			`{"start":10,"end":20,"replacement":"S0.6","score":0.6,"source":"critic2"}` +
			`],"rationale":"both proposed the same span"}`,
	}}
	o, _, critics := testOrchestrator(gen)

	sp := testSpeech()
	res, err := o.Run(context.Background(), sp, Request{
		SpeechID:   sp.ID,
		InputText:  input,
		RunCritics: true,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status: %s errors: %v", res.Status, res.Errors)
	}
	want := "0123456789S0.9 tail of the speech."
	if res.FinalText != want {
		t.Fatalf("final text: %q want %q", res.FinalText, want)
	}
	if len(res.AppliedEdits) != 1 || res.AppliedEdits[0].Source != "critic1" {
		t.Fatalf("applied: %+v", res.AppliedEdits)
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].Source != "critic2" {
		t.Fatalf("conflicts: %+v", res.Conflicts)
	}
	// critic1's feedback row carries the accepted edit; critic2's is empty.
	var gotAccepted, gotEmpty bool
	for _, raw := range critics.acceptedEdits {
		if strings.Contains(string(raw), "S0.9") {
			gotAccepted = true
		} else if string(raw) == "[]" {
			gotEmpty = true
		}
	}
	if !gotAccepted || !gotEmpty {
		t.Fatalf("accepted edits updates: %v", critics.acceptedEdits)
	}
}

func TestRunCriticFailureSkipsReferee(t *testing.T) {
	gen := &fakeGen{
		responses: map[string]string{"critic_a": emptyCritic()},
		failOn:    map[string]error{"critic_b": errors.New("timeout")},
	}
	o, _, _ := testOrchestrator(gen)

	sp := testSpeech()
	res, err := o.Run(context.Background(), sp, Request{
		SpeechID:   sp.ID,
		InputText:  "Some workable draft text here.",
		RunCritics: true,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusPartialSuccess {
		t.Fatalf("status: %s", res.Status)
	}
	for _, tr := range res.Trace {
		if tr.Stage == StageReferee {
			t.Fatal("referee must not run after a critic failure")
		}
	}
	gen.mu.Lock()
	defer gen.mu.Unlock()
	for _, c := range gen.calls {
		if c == "referee_merge" {
			t.Fatal("referee prompt was generated")
		}
	}
}

func TestRunValidation(t *testing.T) {
	gen := &fakeGen{responses: map[string]string{}}
	o, _, _ := testOrchestrator(gen)

	_, err := o.Run(context.Background(), testSpeech(), Request{InputText: "   "}, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_, err = o.Run(context.Background(), nil, Request{InputText: "text"}, nil)
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for nil speech, got %v", err)
	}
}

func TestRunProgressMilestones(t *testing.T) {
	gen := &fakeGen{responses: map[string]string{
		"rhetoric_pass": `{"rewritten_text":"out","changes":[]}`,
	}}
	o, _, _ := testOrchestrator(gen)

	var stages []string
	sp := testSpeech()
	_, err := o.Run(context.Background(), sp, Request{
		SpeechID:    sp.ID,
		InputText:   "input text",
		RunRhetoric: true,
	}, func(stage string, percent int) {
		stages = append(stages, fmt.Sprintf("%s:%d", stage, percent))
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(stages) != 1 || stages[0] != "rhetoric:25" {
		t.Fatalf("progress calls: %v", stages)
	}
}

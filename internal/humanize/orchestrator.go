package humanize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/speechsmith/speechsmith-backend/internal/analysis/cliche"
	"github.com/speechsmith/speechsmith-backend/internal/analysis/stylometry"
	speechrepo "github.com/speechsmith/speechsmith-backend/internal/data/repos/speech"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
	"github.com/speechsmith/speechsmith-backend/internal/humanize/editmerge"
	"github.com/speechsmith/speechsmith-backend/internal/humanize/prompts"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
	"github.com/speechsmith/speechsmith-backend/internal/platform/openai"
)

const (
	criticAFocus = "specificity: concrete evidence, named examples, precise numbers over vague claims"
	criticBFocus = "freshness, rhythm, and performability when spoken aloud"

	maxStages = 5
)

// ProgressFunc receives coarse stage milestones (stage name, percent done).
// Optional; the async job uses it to publish realtime events.
type ProgressFunc func(stage string, percent int)

// Orchestrator drives the humanization state machine:
// rhetoric -> persona -> (critic1 || critic2) -> referee.
type Orchestrator struct {
	gen     openai.Client
	passes  speechrepo.HumanizationPassRepo
	critics speechrepo.CriticFeedbackRepo
	matcher *cliche.Matcher
	log     *logger.Logger
}

func NewOrchestrator(
	gen openai.Client,
	passes speechrepo.HumanizationPassRepo,
	critics speechrepo.CriticFeedbackRepo,
	matcher *cliche.Matcher,
	baseLog *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		gen:     gen,
		passes:  passes,
		critics: critics,
		matcher: matcher,
		log:     baseLog.With("component", "PassOrchestrator"),
	}
}

type rewriteOutput struct {
	RewrittenText string   `json:"rewritten_text"`
	Changes       []Change `json:"changes"`
}

type criticOutput struct {
	Scores      CriticScores     `json:"scores"`
	Overall     float64          `json:"overall"`
	Suggestions []Suggestion     `json:"suggestions"`
	Edits       []editmerge.Edit `json:"edits"`
	Feedback    string           `json:"feedback"`
}

type refereeOutput struct {
	AcceptedEdits []editmerge.Edit `json:"accepted_edits"`
	Rationale     string           `json:"rationale"`
}

type criticRun struct {
	stage      string
	passType   types.PassType
	criticType types.CriticType
	focus      string

	out         criticOutput
	genRes      openai.GenerateResult
	fingerprint string
	passID      uuid.UUID
	feedbackID  uuid.UUID
	err         error
}

// Run executes the enabled stages against speech's target profile. It returns
// an error only for invalid input or a fatal infrastructure fault; stage
// failures surface as a partial_success Result.
func (o *Orchestrator) Run(ctx context.Context, sp *types.Speech, req Request, progress ProgressFunc) (Result, error) {
	if strings.TrimSpace(req.InputText) == "" {
		return Result{}, &ValidationError{Msg: "input text required"}
	}
	if sp == nil || sp.ID == uuid.Nil {
		return Result{}, &ValidationError{Msg: "speech required"}
	}
	if progress == nil {
		progress = func(string, int) {}
	}

	res := Result{
		Status:    StatusSuccess,
		FinalText: req.InputText,
		PerStage:  map[string]StageResult{},
		// Fixed capacity: beginTrace hands out element pointers, so the
		// backing array must never reallocate.
		Trace: make([]StageTrace, 0, maxStages),
	}

	passOrder, err := o.passes.MaxPassOrder(ctx, nil, sp.ID)
	if err != nil {
		return Result{}, &PersistenceError{Op: "max pass order", Err: err}
	}

	current := req.InputText
	halted := false
	start := time.Now()

	runRewrite := func(stage string, passType types.PassType, name prompts.PromptName, in prompts.Input) {
		trace := o.beginTrace(&res, stage)
		out, genRes, fp, stageErr := o.generateRewrite(ctx, name, in)
		if stageErr != nil {
			o.failStage(&res, trace, stage, stageErr)
			halted = true
			return
		}
		passOrder++
		passID := o.persistPass(ctx, &res, passType, sp.ID, passOrder, current, out.RewrittenText, out.Changes, genRes)
		current = out.RewrittenText
		res.Metrics.TotalLatencyMs += genRes.LatencyMs
		res.Metrics.TotalTokens += genRes.Usage.TotalTokens
		trace.PromptFingerprint = fp
		o.completeTrace(trace, genRes)
		res.PerStage[stage] = StageResult{OutputText: current, PassID: passID, Changes: out.Changes}
	}

	if req.RunRhetoric {
		runRewrite(StageRhetoric, types.PassTypeRhetoric, prompts.PromptRhetoricPass, prompts.Input{
			Text:          current,
			ClicheSummary: o.clicheSummary(current),
			MetricsJSON:   metricsJSON(current),
		})
		if !halted {
			progress(StageRhetoric, 25)
		}
	}

	if req.RunPersona && !halted {
		runRewrite(StagePersona, types.PassTypePersona, prompts.PromptPersonaPass, prompts.Input{
			Text:                     current,
			TargetAvgSentenceLen:     sp.TargetAvgSentenceLen,
			TargetPunctuationDensity: sp.TargetPunctuationDensity,
			MetricsJSON:              metricsJSON(current),
		})
		if !halted {
			progress(StagePersona, 50)
		}
	}

	if req.RunCritics && !halted {
		runs := []*criticRun{
			{stage: StageCriticA, passType: types.PassTypeCritic1, criticType: types.CriticTypeA, focus: criticAFocus},
			{stage: StageCriticB, passType: types.PassTypeCritic2, criticType: types.CriticTypeB, focus: criticBFocus},
		}
		traces := make([]*StageTrace, len(runs))
		for i, r := range runs {
			traces[i] = o.beginTrace(&res, r.stage)
		}

		// Critics score the same fixed input concurrently; each goroutine
		// writes only its own criticRun.
		g, gctx := errgroup.WithContext(ctx)
		for _, r := range runs {
			r := r
			g.Go(func() error {
				r.out, r.genRes, r.fingerprint, r.err = o.generateCritic(gctx, r.focus, current)
				return nil
			})
		}
		_ = g.Wait()

		criticsOK := true
		for i, r := range runs {
			if r.err != nil {
				o.failStage(&res, traces[i], r.stage, r.err)
				criticsOK = false
				continue
			}
			res.Metrics.TotalLatencyMs += r.genRes.LatencyMs
			res.Metrics.TotalTokens += r.genRes.Usage.TotalTokens
			passOrder++
			r.passID = o.persistPass(ctx, &res, r.passType, sp.ID, passOrder, current, current, nil, r.genRes)
			r.feedbackID = o.persistCritic(ctx, &res, r)
			traces[i].PromptFingerprint = r.fingerprint
			o.completeTrace(traces[i], r.genRes)
			res.PerStage[r.stage] = StageResult{PassID: r.passID, FeedbackID: r.feedbackID}
		}

		if !criticsOK {
			halted = true
		} else {
			progress(StageCriticA, 75)
			o.runReferee(ctx, &res, sp, req, runs, &current, &passOrder, &halted)
			if !halted {
				progress(StageReferee, 90)
			}
		}
	}

	res.FinalText = current
	res.Metrics.Stylometry = stylometry.Analyze(current)
	res.Metrics.StyleDistance = stylometry.Distance(res.Metrics.Stylometry, stylometry.Profile{
		AvgSentenceLength:  sp.TargetAvgSentenceLen,
		PunctuationDensity: sp.TargetPunctuationDensity,
	})
	if o.matcher != nil {
		res.Metrics.ClicheDensity = o.matcher.Analyze(current).Density
	}

	if halted {
		res.Status = StatusPartialSuccess
	}
	o.log.Info("humanize run finished",
		"speech_id", sp.ID.String(),
		"status", res.Status,
		"stages", len(res.Trace),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (o *Orchestrator) runReferee(
	ctx context.Context,
	res *Result,
	sp *types.Speech,
	req Request,
	runs []*criticRun,
	current *string,
	passOrder *int,
	halted *bool,
) {
	trace := o.beginTrace(res, StageReferee)

	aJSON, _ := json.Marshal(runs[0].out)
	bJSON, _ := json.Marshal(runs[1].out)
	prompt, err := prompts.Build(prompts.PromptRefereeMerge, prompts.Input{
		Text:              *current,
		CriticAJSON:       string(aJSON),
		CriticBJSON:       string(bJSON),
		TimeBudgetSeconds: req.TimeBudgetSeconds,
	})
	if err != nil {
		o.failStage(res, trace, StageReferee, &GenerationError{Msg: "build referee prompt", Err: err})
		*halted = true
		return
	}

	genRes, err := o.gen.Generate(ctx, openai.GenerateRequest{
		System:     prompt.System,
		User:       prompt.User,
		SchemaName: prompt.SchemaName,
		Schema:     prompt.Schema,
	})
	if err != nil {
		o.failStage(res, trace, StageReferee, &GenerationError{Msg: "referee generate", Err: err})
		*halted = true
		return
	}
	var out refereeOutput
	if !ParseStructured(genRes.Text, &out) {
		o.failStage(res, trace, StageReferee, &GenerationError{Msg: "referee output unparsable"})
		*halted = true
		return
	}

	merged := editmerge.Merge(*current, out.AcceptedEdits)
	input := *current
	*current = merged.MergedText
	res.AppliedEdits = merged.AppliedEdits
	res.Conflicts = merged.Conflicts
	res.Metrics.TotalLatencyMs += genRes.LatencyMs
	res.Metrics.TotalTokens += genRes.Usage.TotalTokens

	*passOrder++
	passID := o.persistPass(ctx, res, types.PassTypeReferee, sp.ID, *passOrder, input, merged.MergedText, nil, genRes)
	trace.PromptFingerprint = prompt.Fingerprint()
	o.completeTrace(trace, genRes)
	res.PerStage[StageReferee] = StageResult{OutputText: merged.MergedText, PassID: passID}

	// Hand each critic back the subset of its edits the referee accepted.
	for _, r := range runs {
		if r.feedbackID == uuid.Nil {
			continue
		}
		accepted := make([]editmerge.Edit, 0, len(merged.AppliedEdits))
		for _, e := range merged.AppliedEdits {
			if e.Source == r.stage {
				accepted = append(accepted, e)
			}
		}
		raw, _ := json.Marshal(accepted)
		if err := o.critics.SetAcceptedEdits(ctx, nil, r.feedbackID, datatypes.JSON(raw)); err != nil {
			o.persistWarn(res, fmt.Sprintf("accepted edits for %s", r.stage), err)
		}
	}
}

func (o *Orchestrator) generateRewrite(ctx context.Context, name prompts.PromptName, in prompts.Input) (rewriteOutput, openai.GenerateResult, string, error) {
	prompt, err := prompts.Build(name, in)
	if err != nil {
		return rewriteOutput{}, openai.GenerateResult{}, "", &GenerationError{Msg: "build prompt", Err: err}
	}
	genRes, err := o.gen.Generate(ctx, openai.GenerateRequest{
		System:     prompt.System,
		User:       prompt.User,
		SchemaName: prompt.SchemaName,
		Schema:     prompt.Schema,
	})
	if err != nil {
		return rewriteOutput{}, openai.GenerateResult{}, "", &GenerationError{Msg: string(name), Err: err}
	}
	var out rewriteOutput
	if !ParseStructured(genRes.Text, &out) || strings.TrimSpace(out.RewrittenText) == "" {
		return rewriteOutput{}, genRes, "", &GenerationError{Msg: string(name) + " output unparsable or empty"}
	}
	return out, genRes, prompt.Fingerprint(), nil
}

func (o *Orchestrator) generateCritic(ctx context.Context, focus, text string) (criticOutput, openai.GenerateResult, string, error) {
	prompt, err := prompts.Build(prompts.PromptCriticReview, prompts.Input{Text: text, CriticFocus: focus})
	if err != nil {
		return criticOutput{}, openai.GenerateResult{}, "", &GenerationError{Msg: "build critic prompt", Err: err}
	}
	genRes, err := o.gen.Generate(ctx, openai.GenerateRequest{
		System:     prompt.System,
		User:       prompt.User,
		SchemaName: prompt.SchemaName,
		Schema:     prompt.Schema,
	})
	if err != nil {
		return criticOutput{}, openai.GenerateResult{}, "", &GenerationError{Msg: "critic generate", Err: err}
	}
	var out criticOutput
	if !ParseStructured(genRes.Text, &out) {
		return criticOutput{}, genRes, "", &GenerationError{Msg: "critic output unparsable"}
	}
	out.Scores.Specificity = clamp10(out.Scores.Specificity)
	out.Scores.Freshness = clamp10(out.Scores.Freshness)
	out.Scores.Performability = clamp10(out.Scores.Performability)
	out.Scores.PersonaFit = clamp10(out.Scores.PersonaFit)
	out.Overall = clamp10(out.Overall)
	return out, genRes, prompt.Fingerprint(), nil
}

func (o *Orchestrator) persistPass(
	ctx context.Context,
	res *Result,
	passType types.PassType,
	speechID uuid.UUID,
	order int,
	input, output string,
	changes []Change,
	genRes openai.GenerateResult,
) uuid.UUID {
	row := &types.HumanizationPass{
		SpeechID:         speechID,
		PassType:         passType,
		PassOrder:        order,
		InputText:        input,
		OutputText:       output,
		ProcessingTimeMs: genRes.LatencyMs,
		ModelUsed:        genRes.Model,
	}
	if len(changes) > 0 {
		if raw, err := json.Marshal(changes); err == nil {
			row.Changes = datatypes.JSON(raw)
		}
	}
	if raw, err := json.Marshal(stylometry.Analyze(output)); err == nil {
		row.Metrics = datatypes.JSON(raw)
	}
	rows, err := o.passes.Create(ctx, nil, []*types.HumanizationPass{row})
	if err != nil {
		o.persistWarn(res, string(passType)+" pass", err)
		return uuid.Nil
	}
	return rows[0].ID
}

func (o *Orchestrator) persistCritic(ctx context.Context, res *Result, r *criticRun) uuid.UUID {
	// Stamp edit sources before the referee consumes them.
	for i := range r.out.Edits {
		r.out.Edits[i].Source = r.stage
	}
	row := &types.CriticFeedback{
		PassID:              r.passID,
		CriticType:          r.criticType,
		SpecificityScore:    r.out.Scores.Specificity,
		FreshnessScore:      r.out.Scores.Freshness,
		PerformabilityScore: r.out.Scores.Performability,
		PersonaFitScore:     r.out.Scores.PersonaFit,
		OverallScore:        r.out.Overall,
		Feedback:            r.out.Feedback,
	}
	if raw, err := json.Marshal(r.out.Suggestions); err == nil {
		row.Suggestions = datatypes.JSON(raw)
	}
	rows, err := o.critics.Create(ctx, nil, []*types.CriticFeedback{row})
	if err != nil {
		o.persistWarn(res, r.stage+" feedback", err)
		return uuid.Nil
	}
	return rows[0].ID
}

func (o *Orchestrator) beginTrace(res *Result, stage string) *StageTrace {
	res.Trace = append(res.Trace, StageTrace{
		Stage:     stage,
		Status:    StageRunning,
		StartedAt: time.Now(),
	})
	return &res.Trace[len(res.Trace)-1]
}

func (o *Orchestrator) completeTrace(t *StageTrace, genRes openai.GenerateResult) {
	t.Status = StageCompleted
	t.EndedAt = time.Now()
	t.DurationMs = t.EndedAt.Sub(t.StartedAt).Milliseconds()
	t.Model = genRes.Model
}

func (o *Orchestrator) failStage(res *Result, t *StageTrace, stage string, err error) {
	t.Status = StageFailed
	t.EndedAt = time.Now()
	t.DurationMs = t.EndedAt.Sub(t.StartedAt).Milliseconds()
	t.Error = err.Error()
	failure := &StageFailure{Stage: stage, Err: err}
	res.Errors = append(res.Errors, failure.Error())
	o.log.Warn("stage failed", "stage", stage, "error", err.Error())
}

func (o *Orchestrator) persistWarn(res *Result, op string, err error) {
	perr := &PersistenceError{Op: op, Err: err}
	res.Errors = append(res.Errors, perr.Error())
	o.log.Error("persist failed", "op", op, "error", err.Error())
}

func (o *Orchestrator) clicheSummary(text string) string {
	if o.matcher == nil {
		return "none detected"
	}
	analysis := o.matcher.Analyze(text)
	if len(analysis.Matches) == 0 {
		return "none detected"
	}
	var b strings.Builder
	for _, m := range analysis.Matches {
		fmt.Fprintf(&b, "- %q (%s) at [%d,%d)\n", m.Phrase, m.Category, m.Start, m.End)
	}
	fmt.Fprintf(&b, "density: %.1f per 100 tokens", analysis.Density)
	return b.String()
}

func metricsJSON(text string) string {
	raw, err := json.Marshal(stylometry.Analyze(text))
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func clamp10(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

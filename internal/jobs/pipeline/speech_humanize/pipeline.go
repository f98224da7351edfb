package speech_humanize

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	jobrt "github.com/speechsmith/speechsmith-backend/internal/jobs/runtime"
	"github.com/speechsmith/speechsmith-backend/internal/observability"
	"github.com/speechsmith/speechsmith-backend/internal/services"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	timer := newStageTimer(p.Type())

	speechID, ok := jc.PayloadUUID("speech_id")
	if !ok || speechID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing speech_id"))
		timer.finish("validate", "failed")
		return nil
	}

	progress := func(stage string, pct int) {
		timer.advance(stage)
		jc.Progress(stage, pct)
	}

	progress("load", 5)
	sp, err := p.speeches.GetByIDForUser(jc.Ctx, nil, speechID, jc.Job.OwnerUserID)
	if err != nil {
		jc.Fail("load", fmt.Errorf("load speech: %w", err))
		timer.finish("load", "failed")
		return nil
	}
	if sp == nil {
		jc.Fail("load", fmt.Errorf("speech not found"))
		timer.finish("load", "failed")
		return nil
	}

	input := jc.PayloadString("input_text")
	if input == "" {
		input = sp.Body
	}

	// Pre-run analysis is advisory: it surfaces issues against the input but
	// never stops the pipeline.
	progress("analyze_input", 10)
	if _, err := p.analyzer.AnalyzeSpeech(jc.Ctx, sp, input); err != nil {
		p.log.Warn("input analysis failed", "speech_id", sp.ID.String(), "error", err)
	}

	result, err := p.humanizer.Humanize(jc.Ctx, jc.Job.OwnerUserID, services.HumanizeRequest{
		SpeechID:          speechID,
		InputText:         input,
		RunRhetoric:       jc.PayloadBool("run_rhetoric"),
		RunPersona:        jc.PayloadBool("run_persona"),
		RunCritics:        jc.PayloadBool("run_critics"),
		TimeBudgetSeconds: jc.PayloadInt("time_budget_seconds"),
	}, progress)
	if err != nil {
		jc.Fail("humanize", err)
		timer.finish("humanize", "failed")
		return nil
	}

	progress("analyze_output", 92)
	if _, err := p.analyzer.AnalyzeSpeech(jc.Ctx, sp, result.FinalText); err != nil {
		p.log.Warn("output analysis failed", "speech_id", sp.ID.String(), "error", err)
	}

	progress("gate", 96)
	out := map[string]any{
		"speech_id": speechID.String(),
		"humanize":  result,
	}
	gate, err := p.gate.ValidateExport(jc.Ctx, speechID, jc.Job.OwnerUserID)
	if err != nil {
		p.log.Warn("export gate evaluation failed", "speech_id", sp.ID.String(), "error", err)
		out["gate_error"] = err.Error()
	} else {
		out["gate"] = gate
	}

	jc.Succeed("done", out)
	timer.finish("done", "succeeded")
	return nil
}

// stageTimer reports per-stage wall time to the metrics registry. Each
// advance closes out the previous stage as ok; finish closes the last one
// with the terminal status.
type stageTimer struct {
	pipeline string
	stage    string
	at       time.Time
}

func newStageTimer(pipeline string) *stageTimer {
	return &stageTimer{pipeline: pipeline, at: time.Now()}
}

func (t *stageTimer) advance(next string) {
	if t.stage != "" {
		if metrics := observability.Current(); metrics != nil {
			metrics.ObservePipelineStage(t.pipeline, t.stage, "ok", time.Since(t.at))
		}
	}
	t.stage = next
	t.at = time.Now()
}

func (t *stageTimer) finish(stage, status string) {
	if metrics := observability.Current(); metrics != nil {
		metrics.ObservePipelineStage(t.pipeline, stage, status, time.Since(t.at))
	}
	t.stage = ""
}

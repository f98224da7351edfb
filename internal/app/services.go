package app

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/speechsmith/speechsmith-backend/internal/analysis/cliche"
	"github.com/speechsmith/speechsmith-backend/internal/analysis/risk"
	"github.com/speechsmith/speechsmith-backend/internal/humanize"
	"github.com/speechsmith/speechsmith-backend/internal/humanize/prompts"
	"github.com/speechsmith/speechsmith-backend/internal/jobs/pipeline/speech_humanize"
	jobruntime "github.com/speechsmith/speechsmith-backend/internal/jobs/runtime"
	"github.com/speechsmith/speechsmith-backend/internal/jobs/worker"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
	"github.com/speechsmith/speechsmith-backend/internal/services"
	"github.com/speechsmith/speechsmith-backend/internal/utils"
)

type Services struct {
	Speech       services.SpeechService
	Analysis     services.AnalysisService
	Humanization services.HumanizationService
	QualityGate  services.QualityGateService

	// Jobs + notifications
	JobNotifier services.JobNotifier
	JobService  services.JobService
	JobRegistry *jobruntime.Registry
	JobWorker   *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, repos Repos) (Services, error) {
	log.Info("Wiring services...")

	// Prompt templates must exist before the orchestrator or the claim
	// detector builds one.
	prompts.RegisterAll()

	table, err := cliche.DefaultTable()
	if err != nil {
		return Services{}, fmt.Errorf("load cliche table: %w", err)
	}
	matcher := cliche.New(table)

	lexicon, err := risk.DefaultLexicon()
	if err != nil {
		return Services{}, fmt.Errorf("load risk lexicon: %w", err)
	}
	var riskOpts []risk.Option
	if claimScanEnabled(log) {
		riskOpts = append(riskOpts, risk.WithClaimDetector(services.NewLLMClaimDetector(log, clients.OpenAI)))
	}
	classifier := risk.New(lexicon, riskOpts...)

	orchestrator := humanize.NewOrchestrator(clients.OpenAI, repos.Passes, repos.Critics, matcher, log)

	notifier := services.NewJobNotifier(log, clients.Bus)

	analysis := services.NewAnalysisService(db, log, matcher, classifier, repos.Speeches, repos.Cliches, repos.Issues, notifier)

	rules, err := services.LoadGateRules()
	if err != nil {
		return Services{}, fmt.Errorf("load gate rules: %w", err)
	}
	gate := services.NewQualityGateService(db, log, rules, repos.Issues, repos.Blocks)

	humanization := services.NewHumanizationService(db, log, orchestrator, repos.Speeches, repos.Jobs)
	speech := services.NewSpeechService(db, log, repos.Speeches, repos.Passes, repos.Critics, repos.Cliches, repos.Issues)
	jobService := services.NewJobService(db, log, repos.Jobs)

	registry := jobruntime.NewRegistry()
	if err := registry.Register(speech_humanize.New(log, repos.Speeches, analysis, humanization, gate)); err != nil {
		return Services{}, fmt.Errorf("register humanize pipeline: %w", err)
	}

	jobWorker := worker.NewWorker(db, log, repos.Jobs, registry, notifier)

	return Services{
		Speech:       speech,
		Analysis:     analysis,
		Humanization: humanization,
		QualityGate:  gate,
		JobNotifier:  notifier,
		JobService:   jobService,
		JobRegistry:  registry,
		JobWorker:    jobWorker,
	}, nil
}

func claimScanEnabled(log *logger.Logger) bool {
	v := strings.ToLower(strings.TrimSpace(utils.GetEnv("RISK_LLM_CLAIMS_ENABLED", "false", log)))
	return v == "1" || v == "true" || v == "yes"
}

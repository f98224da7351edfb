package speech_humanize

import (
	speechrepo "github.com/speechsmith/speechsmith-backend/internal/data/repos/speech"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
	"github.com/speechsmith/speechsmith-backend/internal/services"
)

// Pipeline is the background counterpart of the synchronous humanize
// endpoint: same request contract, with analysis and the export gate bolted
// on either side of the orchestrator run.
type Pipeline struct {
	log *logger.Logger

	speeches  speechrepo.SpeechRepo
	analyzer  services.AnalysisService
	humanizer services.HumanizationService
	gate      services.QualityGateService
}

func New(
	baseLog *logger.Logger,
	speeches speechrepo.SpeechRepo,
	analyzer services.AnalysisService,
	humanizer services.HumanizationService,
	gate services.QualityGateService,
) *Pipeline {
	return &Pipeline{
		log:       baseLog.With("job", services.JobTypeSpeechHumanize),
		speeches:  speeches,
		analyzer:  analyzer,
		humanizer: humanizer,
		gate:      gate,
	}
}

func (p *Pipeline) Type() string { return services.JobTypeSpeechHumanize }

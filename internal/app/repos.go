package app

import (
	"gorm.io/gorm"

	jobsrepo "github.com/speechsmith/speechsmith-backend/internal/data/repos/jobs"
	speechrepo "github.com/speechsmith/speechsmith-backend/internal/data/repos/speech"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

type Repos struct {
	Speeches speechrepo.SpeechRepo
	Passes   speechrepo.HumanizationPassRepo
	Critics  speechrepo.CriticFeedbackRepo
	Cliches  speechrepo.ClicheAnalysisRepo
	Issues   speechrepo.QualityIssueRepo
	Blocks   speechrepo.ExportBlockRepo
	Jobs     jobsrepo.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Speeches: speechrepo.NewSpeechRepo(db, log),
		Passes:   speechrepo.NewHumanizationPassRepo(db, log),
		Critics:  speechrepo.NewCriticFeedbackRepo(db, log),
		Cliches:  speechrepo.NewClicheAnalysisRepo(db, log),
		Issues:   speechrepo.NewQualityIssueRepo(db, log),
		Blocks:   speechrepo.NewExportBlockRepo(db, log),
		Jobs:     jobsrepo.NewJobRunRepo(db, log),
	}
}

package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/speechsmith/speechsmith-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Speech content + pipeline artifacts
		&types.Speech{},
		&types.HumanizationPass{},
		&types.CriticFeedback{},

		// Quality gate
		&types.QualityIssue{},
		&types.ClicheAnalysis{},
		&types.ExportBlock{},

		// Jobs / worker
		&types.JobRun{},
	)
}

func EnsureSpeechIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_speech_user_status
		ON speech (user_id, status, updated_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_speech_user_status: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_critic_feedback_pass
		ON critic_feedback (pass_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_critic_feedback_pass: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cliche_analysis_speech_created
		ON cliche_analysis (speech_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_cliche_analysis_speech_created: %w", err)
	}

	// Gate queries always filter by speech+user+status.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_quality_issue_speech_user_status
		ON quality_issue (speech_id, user_id, status);
	`).Error; err != nil {
		return fmt.Errorf("create idx_quality_issue_speech_user_status: %w", err)
	}

	// At most one active block per speech+user.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_export_block_active
		ON export_block (speech_id, user_id)
		WHERE is_active AND deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_export_block_active: %w", err)
	}

	return nil
}

func EnsureJobIndexes(db *gorm.DB) error {
	// Claim scan: queued or stale-running rows, oldest first.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_run_claim
		ON job_run (status, created_at)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_run_claim: %w", err)
	}

	// Enqueue dedupe per owner+entity+job_type.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_run_owner_entity
		ON job_run (owner_user_id, entity_type, entity_id, job_type, status);
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_run_owner_entity: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureSpeechIndexes(s.db); err != nil {
		s.log.Error("Speech index migration failed", "error", err)
		return err
	}
	if err := EnsureJobIndexes(s.db); err != nil {
		s.log.Error("Job index migration failed", "error", err)
		return err
	}
	return nil
}

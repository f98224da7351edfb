package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/speechsmith/speechsmith-backend/internal/domain"
)

func SeedSpeech(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string) *types.Speech {
	tb.Helper()
	sp := &types.Speech{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
		Body:   "Good evening everyone. Tonight I want to talk about what comes next.",
		Status: types.SpeechStatusDraft,
	}
	if err := tx.WithContext(ctx).Create(sp).Error; err != nil {
		tb.Fatalf("seed speech: %v", err)
	}
	return sp
}

func SeedHumanizationPass(tb testing.TB, ctx context.Context, tx *gorm.DB, speechID uuid.UUID, order int, passType types.PassType) *types.HumanizationPass {
	tb.Helper()
	p := &types.HumanizationPass{
		ID:         uuid.New(),
		SpeechID:   speechID,
		PassType:   passType,
		PassOrder:  order,
		InputText:  "in",
		OutputText: "out",
		Changes:    datatypes.JSON([]byte("[]")),
		Metrics:    datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed humanization pass: %v", err)
	}
	return p
}

func SeedQualityIssue(tb testing.TB, ctx context.Context, tx *gorm.DB, speechID, userID uuid.UUID, issueType types.IssueType, severity types.IssueSeverity) *types.QualityIssue {
	tb.Helper()
	q := &types.QualityIssue{
		ID:          uuid.New(),
		SpeechID:    speechID,
		UserID:      userID,
		IssueType:   issueType,
		Severity:    severity,
		Status:      types.IssueStatusUnresolved,
		Description: "seeded issue",
		Details:     datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quality issue: %v", err)
	}
	return q
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

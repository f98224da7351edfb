package speech

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/speechsmith/speechsmith-backend/internal/data/repos/testutil"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
)

func TestClicheAnalysisRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewClicheAnalysisRepo(db, testutil.Logger(t))

	userID := uuid.New()
	sp := testutil.SeedSpeech(t, ctx, tx, userID, "cliches")
	now := time.Now().UTC()

	older := &types.ClicheAnalysis{
		ID:           uuid.New(),
		SpeechID:     sp.ID,
		Density:      2.4,
		TotalTokens:  250,
		MatchCount:   6,
		NeedsRewrite: true,
		Matches:      datatypes.JSON([]byte("[]")),
		CreatedAt:    now.Add(-1 * time.Hour),
		UpdatedAt:    now.Add(-1 * time.Hour),
	}
	newer := &types.ClicheAnalysis{
		ID:          uuid.New(),
		SpeechID:    sp.ID,
		Density:     0.8,
		TotalTokens: 260,
		MatchCount:  2,
		Matches:     datatypes.JSON([]byte("[]")),
		CreatedAt:   now.Add(-10 * time.Minute),
		UpdatedAt:   now.Add(-10 * time.Minute),
	}

	if _, err := repo.Create(ctx, tx, []*types.ClicheAnalysis{older, newer}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	latest, err := repo.LatestBySpeech(ctx, tx, sp.ID)
	if err != nil {
		t.Fatalf("LatestBySpeech: %v", err)
	}
	if latest == nil || latest.ID != newer.ID {
		t.Fatalf("LatestBySpeech: expected %v, got %+v", newer.ID, latest)
	}

	history, err := repo.ListBySpeech(ctx, tx, sp.ID, 1)
	if err != nil {
		t.Fatalf("ListBySpeech: %v", err)
	}
	if len(history) != 1 || history[0].ID != newer.ID {
		t.Fatalf("ListBySpeech: expected newest only, got %+v", history)
	}

	if row, err := repo.LatestBySpeech(ctx, tx, uuid.New()); err != nil || row != nil {
		t.Fatalf("LatestBySpeech (none): err=%v row=%v", err, row)
	}
}

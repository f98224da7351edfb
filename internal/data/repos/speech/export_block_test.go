package speech

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/speechsmith/speechsmith-backend/internal/data/repos/testutil"
)

func TestExportBlockRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewExportBlockRepo(db, testutil.Logger(t))

	userID := uuid.New()
	sp := testutil.SeedSpeech(t, ctx, tx, userID, "blocked")

	if row, err := repo.GetActive(ctx, tx, sp.ID, userID); err != nil || row != nil {
		t.Fatalf("GetActive (none): err=%v row=%v", err, row)
	}

	issueIDs := datatypes.JSON([]byte(`["` + uuid.NewString() + `"]`))
	block, err := repo.UpsertActive(ctx, tx, sp.ID, userID, "1 critical issue(s) unresolved", issueIDs)
	if err != nil {
		t.Fatalf("UpsertActive: %v", err)
	}
	if block == nil || !block.IsActive || block.BlockReason == "" {
		t.Fatalf("UpsertActive: unexpected row %+v", block)
	}

	// A second upsert refreshes the same row instead of stacking a new one.
	refreshed, err := repo.UpsertActive(ctx, tx, sp.ID, userID, "2 critical issue(s) unresolved", issueIDs)
	if err != nil {
		t.Fatalf("UpsertActive (refresh): %v", err)
	}
	if refreshed == nil || refreshed.ID != block.ID {
		t.Fatalf("UpsertActive (refresh): expected same row %v, got %+v", block.ID, refreshed)
	}
	if refreshed.BlockReason != "2 critical issue(s) unresolved" {
		t.Fatalf("UpsertActive (refresh): reason not updated: %q", refreshed.BlockReason)
	}

	active, err := repo.GetActive(ctx, tx, sp.ID, userID)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if active == nil || active.ID != block.ID {
		t.Fatalf("GetActive: expected %v, got %+v", block.ID, active)
	}

	cleared, err := repo.DeactivateActive(ctx, tx, sp.ID, userID)
	if err != nil {
		t.Fatalf("DeactivateActive: %v", err)
	}
	if cleared == nil || cleared.IsActive {
		t.Fatalf("DeactivateActive: expected inactive row, got %+v", cleared)
	}
	if cleared.ResolvedAt == nil {
		t.Fatalf("DeactivateActive: resolved_at not set")
	}

	if row, err := repo.GetActive(ctx, tx, sp.ID, userID); err != nil || row != nil {
		t.Fatalf("GetActive (after deactivate): err=%v row=%v", err, row)
	}

	// Deactivating when nothing is active is a no-op.
	if row, err := repo.DeactivateActive(ctx, tx, sp.ID, userID); err != nil || row != nil {
		t.Fatalf("DeactivateActive (repeat): err=%v row=%v", err, row)
	}
}

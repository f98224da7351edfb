package speech

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/speechsmith/speechsmith-backend/internal/data/repos/testutil"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
)

func TestQualityIssueRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewQualityIssueRepo(db, testutil.Logger(t))

	userID := uuid.New()
	sp := testutil.SeedSpeech(t, ctx, tx, userID, "quality")

	cliche := testutil.SeedQualityIssue(t, ctx, tx, sp.ID, userID, types.IssueTypeCliche, types.SeverityMedium)
	claim := testutil.SeedQualityIssue(t, ctx, tx, sp.ID, userID, types.IssueTypeRiskClaim, types.SeverityCritical)

	open, err := repo.ListUnresolved(ctx, tx, sp.ID, userID)
	if err != nil {
		t.Fatalf("ListUnresolved: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("ListUnresolved: expected 2, got %d", len(open))
	}

	resolvedBy := userID
	applied, err := repo.MarkResolved(ctx, tx, cliche.ID, types.IssueStatusResolved, &resolvedBy, "rewrote the opener")
	if err != nil {
		t.Fatalf("MarkResolved: %v", err)
	}
	if !applied {
		t.Fatalf("MarkResolved: expected apply")
	}

	// Terminal statuses are one-way: resolving again is a no-op.
	applied, err = repo.MarkResolved(ctx, tx, cliche.ID, types.IssueStatusAcknowledged, &resolvedBy, "again")
	if err != nil {
		t.Fatalf("MarkResolved (repeat): %v", err)
	}
	if applied {
		t.Fatalf("MarkResolved (repeat): expected no-op")
	}

	row, err := repo.GetByID(ctx, tx, cliche.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row == nil || row.Status != types.IssueStatusResolved {
		t.Fatalf("GetByID: expected resolved, got %+v", row)
	}
	if row.ResolvedAt == nil || row.ResolvedBy == nil || *row.ResolvedBy != resolvedBy {
		t.Fatalf("GetByID: resolution metadata missing: %+v", row)
	}
	if row.ResolutionNote != "rewrote the opener" {
		t.Fatalf("GetByID: unexpected note %q", row.ResolutionNote)
	}

	open, err = repo.ListUnresolved(ctx, tx, sp.ID, userID)
	if err != nil {
		t.Fatalf("ListUnresolved (after resolve): %v", err)
	}
	if len(open) != 1 || open[0].ID != claim.ID {
		t.Fatalf("ListUnresolved (after resolve): expected only %v, got %+v", claim.ID, open)
	}

	status := types.IssueStatusResolved
	filtered, err := repo.ListBySpeechUser(ctx, tx, sp.ID, userID, &status)
	if err != nil {
		t.Fatalf("ListBySpeechUser: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != cliche.ID {
		t.Fatalf("ListBySpeechUser: expected only %v, got %+v", cliche.ID, filtered)
	}

	all, err := repo.ListBySpeechUser(ctx, tx, sp.ID, userID, nil)
	if err != nil {
		t.Fatalf("ListBySpeechUser (all): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListBySpeechUser (all): expected 2, got %d", len(all))
	}
}

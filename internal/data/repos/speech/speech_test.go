package speech

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/speechsmith/speechsmith-backend/internal/data/repos/testutil"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
)

func TestSpeechRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewSpeechRepo(db, testutil.Logger(t))

	userID := uuid.New()
	otherUserID := uuid.New()
	now := time.Now().UTC()

	first := &types.Speech{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "keynote",
		Body:      "Thank you all for being here tonight.",
		Status:    types.SpeechStatusDraft,
		CreatedAt: now.Add(-2 * time.Hour),
		UpdatedAt: now.Add(-2 * time.Hour),
	}
	second := &types.Speech{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "toast",
		Body:      "To the happy couple.",
		Status:    types.SpeechStatusDraft,
		CreatedAt: now.Add(-1 * time.Hour),
		UpdatedAt: now.Add(-1 * time.Hour),
	}
	foreign := &types.Speech{
		ID:     uuid.New(),
		UserID: otherUserID,
		Title:  "other",
		Body:   "Not yours.",
		Status: types.SpeechStatusDraft,
	}

	created, err := repo.Create(ctx, tx, []*types.Speech{first, second, foreign})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("Create: expected 3, got %d", len(created))
	}

	got, err := repo.GetByID(ctx, tx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Title != "keynote" {
		t.Fatalf("GetByID: unexpected row %+v", got)
	}

	if row, err := repo.GetByIDForUser(ctx, tx, first.ID, otherUserID); err != nil {
		t.Fatalf("GetByIDForUser (other): %v", err)
	} else if row != nil {
		t.Fatalf("GetByIDForUser (other): expected nil, got %v", row.ID)
	}

	list, err := repo.ListByUser(ctx, tx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListByUser: expected 2, got %d", len(list))
	}
	if list[0].ID != second.ID {
		t.Fatalf("ListByUser: expected newest first, got %v", list[0].ID)
	}

	// Export both, then verify the similarity corpus query excludes the
	// subject speech and orders newest export first.
	exportedAtOld := now.Add(-30 * time.Minute)
	exportedAtNew := now.Add(-10 * time.Minute)
	if err := repo.UpdateFields(ctx, tx, first.ID, map[string]interface{}{
		"status":      types.SpeechStatusExported,
		"exported_at": exportedAtOld,
	}); err != nil {
		t.Fatalf("UpdateFields first: %v", err)
	}
	if err := repo.UpdateFields(ctx, tx, second.ID, map[string]interface{}{
		"status":      types.SpeechStatusExported,
		"exported_at": exportedAtNew,
	}); err != nil {
		t.Fatalf("UpdateFields second: %v", err)
	}

	exported, err := repo.ListExportedForUser(ctx, tx, userID, second.ID, 10)
	if err != nil {
		t.Fatalf("ListExportedForUser: %v", err)
	}
	if len(exported) != 1 || exported[0].ID != first.ID {
		t.Fatalf("ListExportedForUser: expected only %v, got %+v", first.ID, exported)
	}

	exported, err = repo.ListExportedForUser(ctx, tx, userID, uuid.Nil, 1)
	if err != nil {
		t.Fatalf("ListExportedForUser (limit): %v", err)
	}
	if len(exported) != 1 || exported[0].ID != second.ID {
		t.Fatalf("ListExportedForUser (limit): expected newest export, got %+v", exported)
	}
}

package speech

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/speechsmith/speechsmith-backend/internal/data/repos/testutil"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
)

func TestHumanizationPassRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewHumanizationPassRepo(db, testutil.Logger(t))

	userID := uuid.New()
	sp := testutil.SeedSpeech(t, ctx, tx, userID, "passes")

	if max, err := repo.MaxPassOrder(ctx, tx, sp.ID); err != nil || max != 0 {
		t.Fatalf("MaxPassOrder (empty): err=%v max=%d", err, max)
	}

	rhetoric := testutil.SeedHumanizationPass(t, ctx, tx, sp.ID, 1, types.PassTypeRhetoric)
	persona := testutil.SeedHumanizationPass(t, ctx, tx, sp.ID, 2, types.PassTypePersona)

	got, err := repo.GetByID(ctx, tx, rhetoric.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.PassType != types.PassTypeRhetoric {
		t.Fatalf("GetByID: unexpected row %+v", got)
	}

	chain, err := repo.ListBySpeech(ctx, tx, sp.ID)
	if err != nil {
		t.Fatalf("ListBySpeech: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("ListBySpeech: expected 2, got %d", len(chain))
	}
	if chain[0].ID != rhetoric.ID || chain[1].ID != persona.ID {
		t.Fatalf("ListBySpeech: expected pass_order ASC, got %v then %v", chain[0].PassOrder, chain[1].PassOrder)
	}

	if max, err := repo.MaxPassOrder(ctx, tx, sp.ID); err != nil || max != 2 {
		t.Fatalf("MaxPassOrder: err=%v max=%d", err, max)
	}
}

func TestCriticFeedbackRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewCriticFeedbackRepo(db, testutil.Logger(t))

	userID := uuid.New()
	sp := testutil.SeedSpeech(t, ctx, tx, userID, "critics")
	pass := testutil.SeedHumanizationPass(t, ctx, tx, sp.ID, 1, types.PassTypeCritic1)

	rows := []*types.CriticFeedback{
		{
			ID:                  uuid.New(),
			PassID:              pass.ID,
			CriticType:          types.CriticTypeA,
			SpecificityScore:    7.5,
			FreshnessScore:      6,
			PerformabilityScore: 8,
			PersonaFitScore:     7,
			OverallScore:        7.1,
			Suggestions:         datatypes.JSON([]byte("[]")),
		},
		{
			ID:          uuid.New(),
			PassID:      pass.ID,
			CriticType:  types.CriticTypeB,
			Suggestions: datatypes.JSON([]byte("[]")),
		},
	}
	created, err := repo.Create(ctx, tx, rows)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("Create: expected 2, got %d", len(created))
	}

	byPass, err := repo.ListByPassIDs(ctx, tx, []uuid.UUID{pass.ID})
	if err != nil {
		t.Fatalf("ListByPassIDs: %v", err)
	}
	if len(byPass) != 2 {
		t.Fatalf("ListByPassIDs: expected 2, got %d", len(byPass))
	}

	edits := datatypes.JSON([]byte(`[{"start":0,"end":4,"replacement":"Hi"}]`))
	if err := repo.SetAcceptedEdits(ctx, tx, rows[0].ID, edits); err != nil {
		t.Fatalf("SetAcceptedEdits: %v", err)
	}
	got, err := repo.GetByID(ctx, tx, rows[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || len(got.AcceptedEdits) == 0 {
		t.Fatalf("GetByID: accepted edits not persisted: %+v", got)
	}
}

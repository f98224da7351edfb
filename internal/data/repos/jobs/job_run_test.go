package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/speechsmith/speechsmith-backend/internal/data/repos/testutil"
	types "github.com/speechsmith/speechsmith-backend/internal/domain"
)

func TestJobRunRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	ownerUserID := uuid.New()

	queued := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "speech_humanize",
		EntityType:  "speech",
		EntityID:    ptrUUID(uuid.New()),
		Status:      types.JobStatusQueued,
		Stage:       "queued",
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-3 * time.Hour),
		UpdatedAt:   now.Add(-3 * time.Hour),
	}
	failed := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "speech_humanize",
		EntityType:  "speech",
		EntityID:    ptrUUID(uuid.New()),
		Status:      types.JobStatusFailed,
		Stage:       "failed",
		Attempts:    0,
		LastErrorAt: ptrTime(now.Add(-2 * time.Hour)),
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-2 * time.Hour),
		UpdatedAt:   now.Add(-2 * time.Hour),
	}
	staleRunning := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "speech_humanize",
		EntityType:  "speech",
		EntityID:    ptrUUID(uuid.New()),
		Status:      types.JobStatusRunning,
		Stage:       "humanize",
		Attempts:    0,
		HeartbeatAt: ptrTime(now.Add(-10 * time.Hour)),
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-1 * time.Hour),
		UpdatedAt:   now.Add(-1 * time.Hour),
	}

	created, err := repo.Create(ctx, tx, []*types.JobRun{queued, failed, staleRunning})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("Create: expected 3, got %d", len(created))
	}

	got, err := repo.GetByID(ctx, tx, queued.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.ID != queued.ID {
		t.Fatalf("GetByID: expected %v got %v", queued.ID, got)
	}

	// Ownership scoping: a different user never sees the row.
	if row, err := repo.GetByIDForUser(ctx, tx, queued.ID, uuid.New()); err != nil {
		t.Fatalf("GetByIDForUser (other): %v", err)
	} else if row != nil {
		t.Fatalf("GetByIDForUser (other): expected nil, got %v", row.ID)
	}
	if row, err := repo.GetByIDForUser(ctx, tx, queued.ID, ownerUserID); err != nil || row == nil {
		t.Fatalf("GetByIDForUser (owner): err=%v row=%v", err, row)
	}

	// ClaimNextRunnable walks the runnable set in created_at ASC order:
	// queued first, then the retryable failure, then the stale running row.
	claim1, err := repo.ClaimNextRunnable(ctx, tx, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #1: %v", err)
	}
	if claim1 == nil || claim1.ID != queued.ID {
		t.Fatalf("ClaimNextRunnable #1: expected %v got %v", queued.ID, claim1)
	}
	if row, err := repo.GetByID(ctx, tx, claim1.ID); err != nil || row == nil || row.Status != types.JobStatusRunning || row.Attempts != 1 {
		t.Fatalf("ClaimNextRunnable #1 readback: err=%v row=%+v", err, row)
	}

	claim2, err := repo.ClaimNextRunnable(ctx, tx, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #2: %v", err)
	}
	if claim2 == nil || claim2.ID != failed.ID {
		t.Fatalf("ClaimNextRunnable #2: expected %v got %v", failed.ID, claim2)
	}

	claim3, err := repo.ClaimNextRunnable(ctx, tx, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #3: %v", err)
	}
	if claim3 == nil || claim3.ID != staleRunning.ID {
		t.Fatalf("ClaimNextRunnable #3: expected %v got %v", staleRunning.ID, claim3)
	}

	claim4, err := repo.ClaimNextRunnable(ctx, tx, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #4: %v", err)
	}
	if claim4 != nil {
		t.Fatalf("ClaimNextRunnable #4: expected nil, got %v", claim4)
	}

	// UpdateFields
	if err := repo.UpdateFields(ctx, tx, queued.ID, map[string]interface{}{"status": types.JobStatusSucceeded, "stage": "done"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	// UpdateFieldsUnlessStatus skips rows already in a disallowed status.
	if err := repo.UpdateFields(ctx, tx, failed.ID, map[string]interface{}{"status": types.JobStatusCanceled}); err != nil {
		t.Fatalf("cancel setup: %v", err)
	}
	applied, err := repo.UpdateFieldsUnlessStatus(ctx, tx, failed.ID, []string{types.JobStatusCanceled}, map[string]interface{}{"status": types.JobStatusRunning})
	if err != nil {
		t.Fatalf("UpdateFieldsUnlessStatus (canceled): %v", err)
	}
	if applied {
		t.Fatalf("UpdateFieldsUnlessStatus (canceled): expected skip")
	}
	applied, err = repo.UpdateFieldsUnlessStatus(ctx, tx, staleRunning.ID, []string{types.JobStatusCanceled}, map[string]interface{}{"stage": "gate", "progress": 96})
	if err != nil {
		t.Fatalf("UpdateFieldsUnlessStatus: %v", err)
	}
	if !applied {
		t.Fatalf("UpdateFieldsUnlessStatus: expected apply")
	}

	// Heartbeat
	if err := repo.Heartbeat(ctx, tx, staleRunning.ID); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	hb, err := repo.GetByID(ctx, tx, staleRunning.ID)
	if err != nil || hb == nil || hb.HeartbeatAt == nil {
		t.Fatalf("Heartbeat readback: err=%v row=%v", err, hb)
	}
	if !hb.HeartbeatAt.After(now.Add(-1 * time.Hour)) {
		t.Fatalf("Heartbeat readback: heartbeat_at not refreshed: %v", hb.HeartbeatAt)
	}

	// HasRunnableForEntity backs async enqueue dedupe.
	speechID := uuid.New()
	runnable := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "speech_humanize",
		EntityType:  "speech",
		EntityID:    &speechID,
		Status:      types.JobStatusQueued,
		Stage:       "queued",
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
	}
	if _, err := repo.Create(ctx, tx, []*types.JobRun{runnable}); err != nil {
		t.Fatalf("seed runnable: %v", err)
	}

	has, err := repo.HasRunnableForEntity(ctx, tx, ownerUserID, "speech", speechID, "speech_humanize")
	if err != nil {
		t.Fatalf("HasRunnableForEntity: %v", err)
	}
	if !has {
		t.Fatalf("HasRunnableForEntity: expected true")
	}

	has, err = repo.HasRunnableForEntity(ctx, tx, ownerUserID, "speech", uuid.New(), "speech_humanize")
	if err != nil {
		t.Fatalf("HasRunnableForEntity (other entity): %v", err)
	}
	if has {
		t.Fatalf("HasRunnableForEntity (other entity): expected false")
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrUUID(u uuid.UUID) *uuid.UUID { return &u }

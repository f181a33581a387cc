package memory

import (
	"context"
	"testing"
	"time"

	"hiretrack/internal/common"
	"hiretrack/internal/domain/application"
	"hiretrack/internal/domain/job"
)

func newApplication(now time.Time) (application.Application, application.History) {
	app := application.Application{
		ID:          common.NewUUID(),
		JobID:       common.NewUUID(),
		CandidateID: common.NewUUID(),
		Stage:       application.StageApplied,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	entry := application.History{
		ID:            common.NewUUID(),
		ApplicationID: app.ID,
		FromStage:     application.StageApplied,
		ToStage:       application.StageApplied,
		ChangedByID:   app.CandidateID,
		CreatedAt:     now,
	}
	return app, entry
}

func TestCreateRejectsDuplicatePair(t *testing.T) {
	repo := NewStore().Applications()
	ctx := context.Background()
	app, entry := newApplication(time.Now())
	if _, err := repo.CreateWithHistory(ctx, app, entry); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := app
	dup.ID = common.NewUUID()
	if _, err := repo.CreateWithHistory(ctx, dup, entry); !common.Is(err, common.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	history, _ := repo.ListHistory(ctx, dup.ID)
	if len(history) != 0 {
		t.Fatal("failed create must not write history")
	}
}

func TestUpdateStageCompareAndSet(t *testing.T) {
	repo := NewStore().Applications()
	ctx := context.Background()
	now := time.Now()
	app, entry := newApplication(now)
	if _, err := repo.CreateWithHistory(ctx, app, entry); err != nil {
		t.Fatalf("create: %v", err)
	}
	move := application.History{ID: common.NewUUID(), ApplicationID: app.ID, FromStage: application.StageApplied, ToStage: application.StageScreening, CreatedAt: now.Add(time.Second)}
	updated, err := repo.UpdateStageWithHistory(ctx, app.ID, application.StageApplied, application.StageScreening, move)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Stage != application.StageScreening || !updated.UpdatedAt.Equal(move.CreatedAt) {
		t.Fatalf("unexpected application %+v", updated)
	}

	stale := application.History{ID: common.NewUUID(), ApplicationID: app.ID, FromStage: application.StageApplied, ToStage: application.StageRejected, CreatedAt: now.Add(2 * time.Second)}
	if _, err := repo.UpdateStageWithHistory(ctx, app.ID, application.StageApplied, application.StageRejected, stale); !common.Is(err, common.CodeConflict) {
		t.Fatalf("expected conflict on stale stage, got %v", err)
	}
	history, err := repo.ListHistory(ctx, app.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[1].ToStage != application.StageScreening {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestJobRepositoryCopiesRecruiters(t *testing.T) {
	store := NewStore()
	id := common.NewUUID()
	store.PutJob(job.Job{ID: id, Title: "Backend Engineer", Status: job.StatusOpen, RecruiterEmails: []string{"r@example.com"}})
	found, err := store.Jobs().FindWithRecruiters(context.Background(), id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	found.RecruiterEmails[0] = "changed@example.com"
	again, _ := store.Jobs().FindWithRecruiters(context.Background(), id)
	if again.RecruiterEmails[0] != "r@example.com" {
		t.Fatal("stored job must not be mutated through a returned copy")
	}
	if _, err := store.Jobs().FindWithRecruiters(context.Background(), common.NewUUID()); !common.Is(err, common.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

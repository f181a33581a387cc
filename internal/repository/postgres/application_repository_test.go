//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"hiretrack/internal/common"
	"hiretrack/internal/database"
	"hiretrack/internal/domain/application"
	"hiretrack/internal/domain/job"
	"hiretrack/internal/domain/user"
	"hiretrack/internal/repository/postgres"
)

type seeded struct {
	db        *sql.DB
	apps      *postgres.ApplicationRepository
	job       *job.Job
	recruiter *user.User
	candidate *user.User
}

// setupDatabase starts a Postgres container, applies the embedded migrations
// and seeds one company with a recruiter, an open job and a candidate.
func setupDatabase(t *testing.T) *seeded {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("hiretrack_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if termErr := container.Terminate(ctx); termErr != nil {
			t.Logf("terminate container: %v", termErr)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}
	db, err := database.NewPostgres(ctx, database.PostgresConfig{DSN: dsn, MaxOpenConns: 5, MaxIdleConns: 5, ReadyTimeout: 30 * time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	now := time.Now().UTC()
	companyID, err := postgres.NewCompanyRepository(db).Create(ctx, "Acme")
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	users := postgres.NewUserRepository(db)
	recruiter, err := users.Create(ctx, user.User{CompanyID: companyID, Email: "recruiter@acme.test", Role: user.RoleRecruiter, CreatedAt: now})
	if err != nil {
		t.Fatalf("create recruiter: %v", err)
	}
	candidate, err := users.Create(ctx, user.User{Email: "candidate@example.test", Role: user.RoleCandidate, CreatedAt: now})
	if err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	j, err := postgres.NewJobRepository(db).Create(ctx, job.Job{CompanyID: companyID, Title: "Backend Engineer", Status: job.StatusOpen, CreatedAt: now})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return &seeded{db: db, apps: postgres.NewApplicationRepository(db), job: j, recruiter: recruiter, candidate: candidate}
}

func (s *seeded) submit(t *testing.T, at time.Time) *application.Application {
	t.Helper()
	app := application.Application{ID: common.NewUUID(), JobID: s.job.ID, CandidateID: s.candidate.ID, Stage: application.StageApplied, CreatedAt: at, UpdatedAt: at}
	created, err := s.apps.CreateWithHistory(context.Background(), app, application.History{
		ID: common.NewUUID(), ApplicationID: app.ID, FromStage: application.StageApplied, ToStage: application.StageApplied, ChangedByID: s.candidate.ID, CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	return created
}

func (s *seeded) historyCount(t *testing.T, id common.UUID) int {
	t.Helper()
	items, err := s.apps.ListHistory(context.Background(), id)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	return len(items)
}

func TestCreateRollsBackWhenHistoryInsertFails(t *testing.T) {
	s := setupDatabase(t)
	ctx := context.Background()
	now := time.Now().UTC()
	app := application.Application{ID: common.NewUUID(), JobID: s.job.ID, CandidateID: s.candidate.ID, Stage: application.StageApplied, CreatedAt: now, UpdatedAt: now}
	_, err := s.apps.CreateWithHistory(ctx, app, application.History{
		ID: common.NewUUID(), ApplicationID: app.ID, FromStage: application.StageApplied, ToStage: application.StageApplied, ChangedByID: common.NewUUID(), CreatedAt: now,
	})
	if !common.Is(err, common.CodeNotFound) {
		t.Fatalf("expected not found from the history foreign key, got %v", err)
	}
	if _, err := s.apps.FindByJobAndCandidate(ctx, s.job.ID, s.candidate.ID); !common.Is(err, common.CodeNotFound) {
		t.Fatalf("application row must be rolled back, got %v", err)
	}
	if n := s.historyCount(t, app.ID); n != 0 {
		t.Fatalf("expected no history rows, got %d", n)
	}
}

func TestUpdateStageRejectsStaleFromStage(t *testing.T) {
	s := setupDatabase(t)
	ctx := context.Background()
	app := s.submit(t, time.Now().UTC())
	later := time.Now().UTC()
	if _, err := s.apps.UpdateStageWithHistory(ctx, app.ID, application.StageApplied, application.StageScreening, application.History{
		ID: common.NewUUID(), ApplicationID: app.ID, FromStage: application.StageApplied, ToStage: application.StageScreening, ChangedByID: s.recruiter.ID, CreatedAt: later,
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	_, err := s.apps.UpdateStageWithHistory(ctx, app.ID, application.StageApplied, application.StageRejected, application.History{
		ID: common.NewUUID(), ApplicationID: app.ID, FromStage: application.StageApplied, ToStage: application.StageRejected, ChangedByID: s.recruiter.ID, CreatedAt: later,
	})
	if !common.Is(err, common.CodeConflict) {
		t.Fatalf("expected conflict for a stale stage, got %v", err)
	}
	stored, err := s.apps.GetByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if stored.Stage != application.StageScreening {
		t.Fatalf("stale update must not write, stage is %s", stored.Stage)
	}
	if n := s.historyCount(t, app.ID); n != 2 {
		t.Fatalf("expected 2 history rows, got %d", n)
	}
}

func TestDuplicateApplicationIsConflict(t *testing.T) {
	s := setupDatabase(t)
	now := time.Now().UTC()
	s.submit(t, now)

	dup := application.Application{ID: common.NewUUID(), JobID: s.job.ID, CandidateID: s.candidate.ID, Stage: application.StageApplied, CreatedAt: now, UpdatedAt: now}
	_, err := s.apps.CreateWithHistory(context.Background(), dup, application.History{
		ID: common.NewUUID(), ApplicationID: dup.ID, FromStage: application.StageApplied, ToStage: application.StageApplied, ChangedByID: s.candidate.ID, CreatedAt: now,
	})
	if !common.Is(err, common.CodeConflict) {
		t.Fatalf("expected conflict from the unique pair index, got %v", err)
	}
}

func TestListHistoryUsesCommitOrderNotTimestamps(t *testing.T) {
	s := setupDatabase(t)
	ctx := context.Background()
	start := time.Now().UTC()
	app := s.submit(t, start)
	// The writer's clock steps back before the transition.
	if _, err := s.apps.UpdateStageWithHistory(ctx, app.ID, application.StageApplied, application.StageScreening, application.History{
		ID: common.NewUUID(), ApplicationID: app.ID, FromStage: application.StageApplied, ToStage: application.StageScreening, ChangedByID: s.recruiter.ID, CreatedAt: start.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	items, err := s.apps.ListHistory(ctx, app.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(items) != 2 || items[0].ToStage != application.StageApplied || items[1].ToStage != application.StageScreening {
		t.Fatalf("unexpected history order %+v", items)
	}
}

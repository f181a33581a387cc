package application

import (
	"context"
	"time"

	"hiretrack/internal/common"
)

type Application struct {
	ID          common.UUID `json:"id"`
	JobID       common.UUID `json:"job_id"`
	CandidateID common.UUID `json:"candidate_id"`
	Stage       Stage       `json:"stage"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// History is one immutable audit entry. Creation is recorded as Applied -> Applied.
type History struct {
	ID            common.UUID `json:"id"`
	ApplicationID common.UUID `json:"application_id"`
	FromStage     Stage       `json:"from_stage"`
	ToStage       Stage       `json:"to_stage"`
	ChangedByID   common.UUID `json:"changed_by_id"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Repository is the storage port of the lifecycle engine. CreateWithHistory and
// UpdateStageWithHistory each commit both rows or neither.
type Repository interface {
	GetByID(ctx context.Context, id common.UUID) (*Application, error)
	FindByJobAndCandidate(ctx context.Context, jobID, candidateID common.UUID) (*Application, error)
	CreateWithHistory(ctx context.Context, app Application, entry History) (*Application, error)
	// UpdateStageWithHistory only applies when the stored stage still equals from;
	// otherwise it fails with common.CodeConflict and writes nothing.
	UpdateStageWithHistory(ctx context.Context, id common.UUID, from, to Stage, entry History) (*Application, error)
	ListHistory(ctx context.Context, applicationID common.UUID) ([]History, error)
}

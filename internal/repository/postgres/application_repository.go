package postgres

import (
	"context"
	"database/sql"
	"errors"

	"hiretrack/internal/common"
	"hiretrack/internal/domain/application"
)

const applicationColumns = `id, job_id, candidate_id, stage, created_at, updated_at`

type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*application.Application, error) {
	var app application.Application
	if err := row.Scan(&app.ID, &app.JobID, &app.CandidateID, &app.Stage, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id common.UUID) (*application.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "application not found", err)
		}
		return nil, classify(err, "failed to load application")
	}
	return app, nil
}

func (r *ApplicationRepository) FindByJobAndCandidate(ctx context.Context, jobID, candidateID common.UUID) (*application.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE job_id = $1 AND candidate_id = $2`, jobID, candidateID)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "application not found", err)
		}
		return nil, classify(err, "failed to load application")
	}
	return app, nil
}

func (r *ApplicationRepository) CreateWithHistory(ctx context.Context, app application.Application, entry application.History) (*application.Application, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO applications (`+applicationColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
			app.ID, app.JobID, app.CandidateID, app.Stage, app.CreatedAt, app.UpdatedAt); err != nil {
			return classify(err, "failed to create application")
		}
		return insertHistory(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepository) UpdateStageWithHistory(ctx context.Context, id common.UUID, from, to application.Stage, entry application.History) (*application.Application, error) {
	var updated *application.Application
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `UPDATE applications SET stage = $1, updated_at = $2
			WHERE id = $3 AND stage = $4
			RETURNING `+applicationColumns, to, entry.CreatedAt, id, from)
		app, err := scanApplication(row)
		if errors.Is(err, sql.ErrNoRows) {
			return common.NewDetailedError(common.CodeConflict, "application stage changed concurrently", map[string]string{"expected": from.String()}, nil)
		}
		if err != nil {
			return classify(err, "failed to update application stage")
		}
		updated = app
		return insertHistory(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListHistory returns entries in commit order. seq is assigned while the
// transaction holds the application row lock, so it never goes backwards for
// one application; created_at comes from the writer's clock and may.
func (r *ApplicationRepository) ListHistory(ctx context.Context, applicationID common.UUID) ([]application.History, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, application_id, from_stage, to_stage, changed_by_id, created_at
		FROM application_history WHERE application_id = $1
		ORDER BY seq`, applicationID)
	if err != nil {
		return nil, classify(err, "failed to list application history")
	}
	defer rows.Close()
	items := []application.History{}
	for rows.Next() {
		var h application.History
		if err := rows.Scan(&h.ID, &h.ApplicationID, &h.FromStage, &h.ToStage, &h.ChangedByID, &h.CreatedAt); err != nil {
			return nil, classify(err, "failed to scan application history")
		}
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "failed to list application history")
	}
	return items, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, entry application.History) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO application_history (id, application_id, from_stage, to_stage, changed_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.ApplicationID, entry.FromStage, entry.ToStage, entry.ChangedByID, entry.CreatedAt); err != nil {
		return classify(err, "failed to record application history")
	}
	return nil
}

// inTx commits when fn returns nil and rolls back otherwise.
func (r *ApplicationRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(err, "failed to commit transaction")
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"hiretrack/internal/common"
	"hiretrack/internal/domain/job"
	"hiretrack/internal/domain/user"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// FindWithRecruiters loads a job and the emails of its company's recruiters in
// one round trip.
func (r *JobRepository) FindWithRecruiters(ctx context.Context, id common.UUID) (*job.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT j.id, j.company_id, j.title, j.status, j.created_at,
			COALESCE(array_agg(u.email ORDER BY u.email) FILTER (WHERE u.id IS NOT NULL), '{}')
		FROM jobs j
		LEFT JOIN users u ON u.company_id = j.company_id AND u.role = $2
		WHERE j.id = $1
		GROUP BY j.id`, id, string(user.RoleRecruiter))
	var j job.Job
	var emails []string
	if err := row.Scan(&j.ID, &j.CompanyID, &j.Title, &j.Status, &j.CreatedAt, pq.Array(&emails)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "job not found", err)
		}
		return nil, classify(err, "failed to load job")
	}
	j.RecruiterEmails = emails
	return &j, nil
}

// Create is used by operator tooling to seed jobs.
func (r *JobRepository) Create(ctx context.Context, j job.Job) (*job.Job, error) {
	if j.ID.IsZero() {
		j.ID = common.NewUUID()
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO jobs (id, company_id, title, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		j.ID, j.CompanyID, j.Title, j.Status, j.CreatedAt); err != nil {
		return nil, classify(err, "failed to create job")
	}
	return &j, nil
}

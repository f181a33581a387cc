package postgres

import (
	"context"
	"database/sql"
	"time"

	"hiretrack/internal/common"
)

type CompanyRepository struct {
	db *sql.DB
}

func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(ctx context.Context, name string) (common.UUID, error) {
	id := common.NewUUID()
	if _, err := r.db.ExecContext(ctx, `INSERT INTO companies (id, name, created_at) VALUES ($1, $2, $3)`, id, name, time.Now().UTC()); err != nil {
		return "", classify(err, "failed to create company")
	}
	return id, nil
}

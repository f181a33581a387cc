package postgres

import (
	"context"
	"database/sql"
	"errors"

	"hiretrack/internal/common"
	"hiretrack/internal/domain/user"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id common.UUID) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, COALESCE(company_id::text, ''), email, role, created_at FROM users WHERE id = $1`, id)
	var u user.User
	if err := row.Scan(&u.ID, &u.CompanyID, &u.Email, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "user not found", err)
		}
		return nil, classify(err, "failed to load user")
	}
	return &u, nil
}

// Create is used by operator tooling to seed accounts.
func (r *UserRepository) Create(ctx context.Context, u user.User) (*user.User, error) {
	if u.ID.IsZero() {
		u.ID = common.NewUUID()
	}
	var companyID sql.NullString
	if !u.CompanyID.IsZero() {
		companyID = sql.NullString{String: u.CompanyID.String(), Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO users (id, company_id, email, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, companyID, u.Email, u.Role, u.CreatedAt); err != nil {
		return nil, classify(err, "failed to create user")
	}
	return &u, nil
}

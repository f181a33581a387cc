package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"hiretrack/internal/common"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"

	applicationUniqueIndex = "applications_job_candidate_uidx"
)

// classify turns a driver error into a common.Error. Unique violations mean a
// concurrent writer got there first.
func classify(err error, message string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			msg := "already exists"
			if pgErr.ConstraintName == applicationUniqueIndex {
				msg = "already applied"
			}
			return common.NewDetailedError(common.CodeConflict, msg, map[string]string{"constraint": pgErr.ConstraintName}, err)
		case foreignKeyViolation:
			return common.NewDetailedError(common.CodeNotFound, "referenced record not found", map[string]string{"constraint": pgErr.ConstraintName}, err)
		}
	}
	return common.NewError(common.CodeStorageFailure, message, err)
}

package job

import (
	"context"

	"hiretrack/internal/common"
)

type Repository interface {
	FindWithRecruiters(ctx context.Context, id common.UUID) (*Job, error)
}

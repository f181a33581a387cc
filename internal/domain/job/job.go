package job

import (
	"time"

	"hiretrack/internal/common"
)

type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Job is the read model the lifecycle engine needs: status, title, and the
// emails of every recruiter of the owning company.
type Job struct {
	ID              common.UUID `json:"id"`
	CompanyID       common.UUID `json:"company_id"`
	Title           string      `json:"title"`
	Status          Status      `json:"status"`
	RecruiterEmails []string    `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
}

func (j Job) Open() bool {
	return j.Status == StatusOpen
}

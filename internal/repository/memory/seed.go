package memory

import (
	"time"

	"hiretrack/internal/common"
	"hiretrack/internal/domain/job"
	"hiretrack/internal/domain/user"
)

// Demo is the fixture data written by SeedDemo.
type Demo struct {
	CompanyID common.UUID
	Job       job.Job
	Recruiter user.User
	Candidate user.User
}

// SeedDemo puts one company with a recruiter, an open job and a candidate into
// the store, mirroring what `hiretrackctl seed` writes to Postgres.
func (s *Store) SeedDemo(now time.Time) Demo {
	d := Demo{CompanyID: common.NewUUID()}
	d.Recruiter = user.User{ID: common.NewUUID(), CompanyID: d.CompanyID, Email: "recruiter@acme.test", Role: user.RoleRecruiter, CreatedAt: now}
	d.Candidate = user.User{ID: common.NewUUID(), Email: "candidate@example.test", Role: user.RoleCandidate, CreatedAt: now}
	d.Job = job.Job{
		ID:              common.NewUUID(),
		CompanyID:       d.CompanyID,
		Title:           "Backend Engineer",
		Status:          job.StatusOpen,
		RecruiterEmails: []string{d.Recruiter.Email},
		CreatedAt:       now,
	}
	s.PutUser(d.Recruiter)
	s.PutUser(d.Candidate)
	s.PutJob(d.Job)
	return d
}

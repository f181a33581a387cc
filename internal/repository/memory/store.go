// Package memory holds in-process implementations of the storage ports. Each
// write takes the store lock once, so an application row and its history entry
// become visible together.
package memory

import (
	"context"
	"sync"

	"hiretrack/internal/common"
	"hiretrack/internal/domain/application"
	"hiretrack/internal/domain/job"
	"hiretrack/internal/domain/user"
)

type Store struct {
	mu           sync.RWMutex
	applications map[common.UUID]application.Application
	history      map[common.UUID][]application.History
	jobs         map[common.UUID]job.Job
	users        map[common.UUID]user.User
}

func NewStore() *Store {
	return &Store{
		applications: make(map[common.UUID]application.Application),
		history:      make(map[common.UUID][]application.History),
		jobs:         make(map[common.UUID]job.Job),
		users:        make(map[common.UUID]user.User),
	}
}

func (s *Store) Applications() *ApplicationRepository { return &ApplicationRepository{store: s} }
func (s *Store) Jobs() *JobRepository { return &JobRepository{store: s} }
func (s *Store) Users() *UserRepository { return &UserRepository{store: s} }

// PutJob inserts or replaces a job.
func (s *Store) PutJob(j job.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.RecruiterEmails = append([]string(nil), j.RecruiterEmails...)
	s.jobs[j.ID] = j
}

func (s *Store) PutUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

type ApplicationRepository struct {
	store *Store
}

func (r *ApplicationRepository) GetByID(_ context.Context, id common.UUID) (*application.Application, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	app, ok := r.store.applications[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	return &app, nil
}

func (r *ApplicationRepository) FindByJobAndCandidate(_ context.Context, jobID, candidateID common.UUID) (*application.Application, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, app := range r.store.applications {
		if app.JobID == jobID && app.CandidateID == candidateID {
			found := app
			return &found, nil
		}
	}
	return nil, common.NewError(common.CodeNotFound, "application not found", nil)
}

func (r *ApplicationRepository) CreateWithHistory(_ context.Context, app application.Application, entry application.History) (*application.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.applications[app.ID]; exists {
		return nil, common.NewError(common.CodeConflict, "application already exists", nil)
	}
	for _, existing := range r.store.applications {
		if existing.JobID == app.JobID && existing.CandidateID == app.CandidateID {
			return nil, common.NewError(common.CodeConflict, "already applied", nil)
		}
	}
	r.store.applications[app.ID] = app
	r.store.history[app.ID] = append(r.store.history[app.ID], entry)
	created := app
	return &created, nil
}

func (r *ApplicationRepository) UpdateStageWithHistory(_ context.Context, id common.UUID, from, to application.Stage, entry application.History) (*application.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	app, ok := r.store.applications[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	if app.Stage != from {
		return nil, common.NewDetailedError(common.CodeConflict, "application stage changed concurrently", map[string]string{
			"expected": from.String(),
			"current":  app.Stage.String(),
		}, nil)
	}
	app.Stage = to
	app.UpdatedAt = entry.CreatedAt
	r.store.applications[id] = app
	r.store.history[id] = append(r.store.history[id], entry)
	updated := app
	return &updated, nil
}

func (r *ApplicationRepository) ListHistory(_ context.Context, applicationID common.UUID) ([]application.History, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	entries := make([]application.History, len(r.store.history[applicationID]))
	copy(entries, r.store.history[applicationID])
	return entries, nil
}

type JobRepository struct {
	store *Store
}

func (r *JobRepository) FindWithRecruiters(_ context.Context, id common.UUID) (*job.Job, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	j, ok := r.store.jobs[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "job not found", nil)
	}
	j.RecruiterEmails = append([]string(nil), j.RecruiterEmails...)
	return &j, nil
}

type UserRepository struct {
	store *Store
}

func (r *UserRepository) GetByID(_ context.Context, id common.UUID) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "user not found", nil)
	}
	return &u, nil
}

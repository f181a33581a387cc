package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"hiretrack/internal/common"
	"hiretrack/internal/domain/application"
	"hiretrack/internal/domain/job"
	"hiretrack/internal/domain/notification"
	"hiretrack/internal/domain/user"
	"hiretrack/internal/metrics"
)

// Dispatcher is the part of notify.Dispatcher the lifecycle engine uses.
type Dispatcher interface {
	EnqueueAll(ctx context.Context, reqs []notification.Request) error
}

// Result is a committed lifecycle change. DispatchErr is set when some of the
// resulting notifications could not be queued; the change itself stands.
type Result struct {
	Application *application.Application
	DispatchErr error
}

type ApplicationService struct {
	repo       application.Repository
	jobs       job.Repository
	users      user.Repository
	dispatcher Dispatcher
	logger     zerolog.Logger
	metrics    *metrics.Collector
	now        func() time.Time
}

func NewApplicationService(repo application.Repository, jobs job.Repository, users user.Repository, dispatcher Dispatcher, logger zerolog.Logger, collector *metrics.Collector) *ApplicationService {
	return &ApplicationService{
		repo:       repo,
		jobs:       jobs,
		users:      users,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    collector,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit records a candidate's application to an open job together with its
// initial history entry, then queues the submission notifications.
func (s *ApplicationService) Submit(ctx context.Context, jobID, candidateID common.UUID) (*Result, error) {
	created, outbox, err := s.commitSubmission(ctx, jobID, candidateID)
	if err != nil {
		return nil, err
	}
	return &Result{Application: created, DispatchErr: s.dispatch(ctx, created.ID, outbox)}, nil
}

// commitSubmission performs the atomic write and returns the notifications it
// owes. It does no queue I/O.
func (s *ApplicationService) commitSubmission(ctx context.Context, jobID, candidateID common.UUID) (*application.Application, []notification.Request, error) {
	if jobID.IsZero() {
		return nil, nil, common.NewValidationError("job_id is required", map[string]string{"job_id": "required"})
	}
	if candidateID.IsZero() {
		return nil, nil, common.NewValidationError("candidate_id is required", map[string]string{"candidate_id": "required"})
	}
	posting, err := s.jobs.FindWithRecruiters(ctx, jobID)
	if err != nil {
		return nil, nil, storageError(err, "load job")
	}
	if !posting.Open() {
		return nil, nil, common.NewDetailedError(common.CodeNotAvailable, "job is not accepting applications", map[string]string{"status": string(posting.Status)}, nil)
	}
	candidate, err := s.users.GetByID(ctx, candidateID)
	if err != nil {
		return nil, nil, storageError(err, "load candidate")
	}
	if _, err := s.repo.FindByJobAndCandidate(ctx, jobID, candidateID); err == nil {
		return nil, nil, common.NewError(common.CodeConflict, "already applied", nil)
	} else if !common.Is(err, common.CodeNotFound) {
		return nil, nil, storageError(err, "check existing application")
	}

	now := s.now()
	app := application.Application{
		ID:          common.NewUUID(),
		JobID:       jobID,
		CandidateID: candidateID,
		Stage:       application.StageApplied,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	entry := application.History{
		ID:            common.NewUUID(),
		ApplicationID: app.ID,
		FromStage:     application.StageApplied,
		ToStage:       application.StageApplied,
		ChangedByID:   candidateID,
		CreatedAt:     now,
	}
	created, err := s.repo.CreateWithHistory(ctx, app, entry)
	if err != nil {
		return nil, nil, storageError(err, "create application")
	}
	if s.metrics != nil {
		s.metrics.IncSubmissions()
	}
	s.logger.Info().
		Str("application_id", created.ID.String()).
		Str("job_id", jobID.String()).
		Str("candidate_id", candidateID.String()).
		Msg("application submitted")
	return created, submissionNotifications(candidate.Email, posting.RecruiterEmails), nil
}

// ChangeStage moves an application along the hiring pipeline. The write only
// lands if the stage has not changed since it was read. Job and candidate data
// only feed the notification, so they are loaded after the commit.
func (s *ApplicationService) ChangeStage(ctx context.Context, applicationID common.UUID, nextStage string, changedByID common.UUID) (*Result, error) {
	updated, from, err := s.commitStageChange(ctx, applicationID, nextStage, changedByID)
	if err != nil {
		return nil, err
	}
	outbox, err := s.stageChangeOutbox(context.WithoutCancel(ctx), updated, from)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncDispatchFailures()
		}
		s.logger.Warn().Err(err).Str("application_id", updated.ID.String()).Msg("stage changed but its notification could not be built")
		return &Result{Application: updated, DispatchErr: common.NewError(common.CodeDispatchFailure, "failed to build stage change notification", err)}, nil
	}
	return &Result{Application: updated, DispatchErr: s.dispatch(ctx, updated.ID, outbox)}, nil
}

// commitStageChange returns the updated application and the stage it left.
func (s *ApplicationService) commitStageChange(ctx context.Context, applicationID common.UUID, nextStage string, changedByID common.UUID) (*application.Application, application.Stage, error) {
	current, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, "", storageError(err, "load application")
	}
	next, err := application.ParseStage(nextStage)
	if err != nil {
		return nil, "", err
	}
	if !application.CanTransition(current.Stage, next) {
		return nil, "", common.NewDetailedError(common.CodeInvalidTransition, "invalid stage transition", map[string]string{
			"current": current.Stage.String(),
			"next":    next.String(),
		}, nil)
	}

	entry := application.History{
		ID:            common.NewUUID(),
		ApplicationID: current.ID,
		FromStage:     current.Stage,
		ToStage:       next,
		ChangedByID:   changedByID,
		CreatedAt:     s.now(),
	}
	updated, err := s.repo.UpdateStageWithHistory(ctx, current.ID, current.Stage, next, entry)
	if err != nil {
		return nil, "", storageError(err, "update application stage")
	}
	if s.metrics != nil {
		s.metrics.IncStageChanges()
	}
	s.logger.Info().
		Str("application_id", updated.ID.String()).
		Str("from", current.Stage.String()).
		Str("to", next.String()).
		Str("changed_by", changedByID.String()).
		Msg("application stage changed")
	return updated, current.Stage, nil
}

func (s *ApplicationService) stageChangeOutbox(ctx context.Context, updated *application.Application, from application.Stage) ([]notification.Request, error) {
	posting, err := s.jobs.FindWithRecruiters(ctx, updated.JobID)
	if err != nil {
		return nil, storageError(err, "load job")
	}
	candidate, err := s.users.GetByID(ctx, updated.CandidateID)
	if err != nil {
		return nil, storageError(err, "load candidate")
	}
	return []notification.Request{stageChangeNotification(candidate.Email, posting.Title, from, updated.Stage)}, nil
}

// Viewer is the caller of a read operation.
type Viewer struct {
	UserID common.UUID
	Role   user.Role
}

// load returns the application when viewer may see it: stage editors see every
// application, a candidate only their own.
func (s *ApplicationService) load(ctx context.Context, id common.UUID, viewer Viewer) (*application.Application, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "load application")
	}
	if user.Authorize(user.StageEditors, viewer.Role) {
		return app, nil
	}
	if user.Authorize([]user.Role{user.RoleCandidate}, viewer.Role) && app.CandidateID == viewer.UserID {
		return app, nil
	}
	return nil, common.NewError(common.CodeForbidden, "not authorized", nil)
}

func (s *ApplicationService) Get(ctx context.Context, id common.UUID, viewer Viewer) (*application.Application, error) {
	return s.load(ctx, id, viewer)
}

func (s *ApplicationService) History(ctx context.Context, id common.UUID, viewer Viewer) ([]application.History, error) {
	if _, err := s.load(ctx, id, viewer); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, storageError(err, "list history")
	}
	return entries, nil
}

// StageOptions is where an application stands and where it may go next.
type StageOptions struct {
	Current application.Stage   `json:"current"`
	Next    []application.Stage `json:"next"`
}

func (s *ApplicationService) NextStages(ctx context.Context, id common.UUID, viewer Viewer) (*StageOptions, error) {
	app, err := s.load(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	return &StageOptions{Current: app.Stage, Next: application.ValidNextStages(app.Stage)}, nil
}

func (s *ApplicationService) dispatch(ctx context.Context, applicationID common.UUID, outbox []notification.Request) error {
	if len(outbox) == 0 || s.dispatcher == nil {
		return nil
	}
	// Already committed: enqueue even if the caller has gone away.
	err := s.dispatcher.EnqueueAll(context.WithoutCancel(ctx), outbox)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncDispatchFailures()
		}
		s.logger.Warn().Err(err).Str("application_id", applicationID.String()).Int("notifications", len(outbox)).Msg("notification dispatch failed after commit")
	}
	return err
}

// storageError keeps structured errors as they are and classifies anything else
// as a storage failure.
func storageError(err error, op string) error {
	if _, ok := common.As(err); ok {
		return err
	}
	return common.NewError(common.CodeStorageFailure, op, err)
}

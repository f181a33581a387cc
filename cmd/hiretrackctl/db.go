package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"hiretrack/internal/common"
	"hiretrack/internal/database"
	"hiretrack/internal/domain/job"
	"hiretrack/internal/domain/user"
	"hiretrack/internal/repository/postgres"
)

func (c *cli) openDB(ctx context.Context) (*sql.DB, error) {
	if c.cfg.PostgresDSN == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return database.NewPostgres(ctx, database.PostgresConfig{
		DSN:          c.cfg.PostgresDSN,
		MaxOpenConns: 2,
		MaxIdleConns: 1,
		ReadyTimeout: c.cfg.DBReadyTimeout,
	}, c.logger)
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			applied, err := database.Migrate(cmd.Context(), db)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"applied": applied})
		},
	}
}

type seedResult struct {
	CompanyID      common.UUID `json:"company_id"`
	JobID          common.UUID `json:"job_id"`
	RecruiterID    common.UUID `json:"recruiter_id"`
	CandidateID    common.UUID `json:"candidate_id"`
	RecruiterToken string      `json:"recruiter_token"`
	CandidateToken string      `json:"candidate_token"`
}

func (c *cli) seedCmd() *cobra.Command {
	var company, title, recruiterEmail, candidateEmail string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a company with one recruiter, one open job and one candidate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			now := time.Now().UTC()
			companyID, err := postgres.NewCompanyRepository(db).Create(ctx, company)
			if err != nil {
				return err
			}
			users := postgres.NewUserRepository(db)
			recruiter, err := users.Create(ctx, user.User{CompanyID: companyID, Email: recruiterEmail, Role: user.RoleRecruiter, CreatedAt: now})
			if err != nil {
				return err
			}
			candidate, err := users.Create(ctx, user.User{Email: candidateEmail, Role: user.RoleCandidate, CreatedAt: now})
			if err != nil {
				return err
			}
			posting, err := postgres.NewJobRepository(db).Create(ctx, job.Job{CompanyID: companyID, Title: title, Status: job.StatusOpen, CreatedAt: now})
			if err != nil {
				return err
			}

			out := seedResult{CompanyID: companyID, JobID: posting.ID, RecruiterID: recruiter.ID, CandidateID: candidate.ID}
			if c.cfg.JWTSecret != "" {
				if out.RecruiterToken, err = c.issue(recruiter.ID, recruiter.Role, c.cfg.AccessTokenTTL); err != nil {
					return err
				}
				if out.CandidateToken, err = c.issue(candidate.ID, candidate.Role, c.cfg.AccessTokenTTL); err != nil {
					return err
				}
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&company, "company", "Acme", "company name")
	cmd.Flags().StringVar(&title, "job-title", "Backend Engineer", "title of the open job")
	cmd.Flags().StringVar(&recruiterEmail, "recruiter-email", "recruiter@acme.test", "recruiter email")
	cmd.Flags().StringVar(&candidateEmail, "candidate-email", "candidate@example.test", "candidate email")
	return cmd
}

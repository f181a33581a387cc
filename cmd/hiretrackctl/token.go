package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"hiretrack/internal/common"
	"hiretrack/internal/domain/user"
	"hiretrack/internal/security"
)

func (c *cli) issue(userID common.UUID, role user.Role, ttl time.Duration) (string, error) {
	if c.cfg.JWTSecret == "" {
		return "", errors.New("JWT_SECRET is required")
	}
	token, _, err := security.NewJWTProvider(c.cfg.JWTSecret).Generate(userID, role, ttl)
	return token, err
}

func (c *cli) tokenCmd() *cobra.Command {
	var userID, role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user id and role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := common.ParseUUID(userID)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = c.cfg.AccessTokenTTL
			}
			token, err := c.issue(id, user.NormalizeRole(role), ttl)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"access_token": token, "expires_in": int64(ttl.Seconds())})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&role, "role", string(user.RoleCandidate), "candidate, recruiter, hiring_manager or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to ACCESS_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

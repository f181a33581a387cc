package user

import (
	"context"
	"strings"
	"time"

	"hiretrack/internal/common"
)

type Role string

const (
	RoleCandidate     Role = "candidate"
	RoleRecruiter     Role = "recruiter"
	RoleHiringManager Role = "hiring_manager"
	RoleAdmin         Role = "admin"
)

// StageEditors may move applications between stages and read any application.
var StageEditors = []Role{RoleRecruiter, RoleHiringManager, RoleAdmin}

type User struct {
	ID        common.UUID `json:"id"`
	CompanyID common.UUID `json:"company_id,omitempty"`
	Email     string      `json:"email"`
	Role      Role        `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

type Repository interface {
	GetByID(ctx context.Context, id common.UUID) (*User, error)
}

func NormalizeRole(value string) Role {
	return Role(strings.ToLower(strings.TrimSpace(value)))
}

// Authorize reports whether actual matches one of required, ignoring case.
func Authorize(required []Role, actual Role) bool {
	normalized := NormalizeRole(string(actual))
	if normalized == "" {
		return false
	}
	for _, role := range required {
		if NormalizeRole(string(role)) == normalized {
			return true
		}
	}
	return false
}

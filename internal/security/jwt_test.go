package security

import (
	"strings"
	"testing"
	"time"

	"hiretrack/internal/common"
	"hiretrack/internal/domain/user"
)

func TestGenerateAndParse(t *testing.T) {
	p := NewJWTProvider("secret")
	id := common.NewUUID()
	token, expiresAt, err := p.Generate(id, "Recruiter", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 59*time.Minute {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}
	claims, err := p.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != id.String() || claims.Role != string(user.RoleRecruiter) {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewJWTProvider("one").Generate(common.NewUUID(), user.RoleCandidate, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewJWTProvider("two").Parse(token); !common.Is(err, common.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	p := NewJWTProvider("secret")
	issued := time.Now().Add(-2 * time.Hour)
	p.now = func() time.Time { return issued }
	token, _, err := p.Generate(common.NewUUID(), user.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	p.now = time.Now
	_, err = p.Parse(token)
	appErr, ok := common.As(err)
	if !ok || appErr.Code != common.CodeUnauthorized || appErr.Message != "token expired" {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	// {"alg":"none"}.{"user_id":"x","role":"admin","iss":"hiretrack","exp":9999999999}.
	token := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJ1c2VyX2lkIjoieCIsInJvbGUiOiJhZG1pbiIsImlzcyI6ImhpcmV0cmFjayIsImV4cCI6OTk5OTk5OTk5OX0."
	if _, err := NewJWTProvider("secret").Parse(token); err == nil {
		t.Fatal("expected alg none to be rejected")
	}
	if _, err := NewJWTProvider("secret").Parse(strings.Repeat("a", 10)); err == nil {
		t.Fatal("expected garbage to be rejected")
	}
}

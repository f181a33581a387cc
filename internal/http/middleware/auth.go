package middleware

import (
	"context"
	"net/http"
	"strings"

	"hiretrack/internal/common"
	"hiretrack/internal/domain/user"
	"hiretrack/internal/http/response"
	"hiretrack/internal/security"
)

// Principal is the authenticated caller taken from a verified token.
type Principal struct {
	UserID common.UUID
	Role   user.Role
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

type AuthMiddleware struct {
	jwt *security.JWTProvider
}

func NewAuthMiddleware(jwt *security.JWTProvider) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			response.Error(w, err)
			return
		}
		claims, err := m.jwt.Parse(token)
		if err != nil {
			response.Error(w, err)
			return
		}
		userID, err := common.ParseUUID(claims.UserID)
		if err != nil {
			response.Error(w, common.NewError(common.CodeUnauthorized, "invalid token subject", err))
			return
		}
		p := Principal{UserID: userID, Role: user.NormalizeRole(claims.Role)}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", common.NewError(common.CodeUnauthorized, "missing authorization header", nil)
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", common.NewError(common.CodeUnauthorized, "invalid authorization header", nil)
	}
	return token, nil
}

// RequireRole lets the request through when the caller holds any of roles.
func RequireRole(roles ...user.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := PrincipalFromContext(r.Context())
			if !user.Authorize(roles, p.Role) {
				response.Error(w, common.NewError(common.CodeForbidden, "not authorized", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func UserIDFromContext(ctx context.Context) (common.UUID, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.UserID.IsZero() {
		return "", false
	}
	return p.UserID, true
}

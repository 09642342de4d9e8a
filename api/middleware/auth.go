package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/reportello/reportello-backend/api/responses"
	pkgAuth "github.com/reportello/reportello-backend/pkg/auth"
	"github.com/reportello/reportello-backend/pkg/config"
	pkgerrors "github.com/reportello/reportello-backend/pkg/errors"
	"github.com/reportello/reportello-backend/pkg/logger"
)

// SessionGuard combines the session lookup used on every request with the
// revoke used to force-expire a session whose account went away.
type SessionGuard interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
	Revoke(ctx context.Context, accessID string) error
}

// AccountGate reports whether the token's subject still maps to an active
// account. Deactivated and deleted users must be signed out on their next
// request, not at their next login.
type AccountGate interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

// Auth validates a bearer token, confirms the refresh session is still alive,
// and confirms the account itself is still active before seeding the request
// context with the claims.
func Auth(cfg config.JWTConfig, guard SessionGuard, gate AccountGate, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if guard != nil {
				ok, err := guard.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			if gate != nil {
				active, err := gate.IsActive(r.Context(), claims.UserID.String())
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve account"))
					return
				}
				if !active {
					if guard != nil {
						_ = guard.Revoke(r.Context(), claims.ID)
					}
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

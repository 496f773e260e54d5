// Package auth validates bearer tokens and populates the request context with
// the caller's tenant and subject.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"ledgerline/pkg/domain"
	"ledgerline/pkg/requestcontext"
)

// Claims are the validated assertions the middleware needs from a token.
type Claims struct {
	TenantID string
	Actor    string
}

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	Validate(tokenString string) (*Claims, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"error_description":%q}`, errCode, errDesc))
}

// RequireAuth returns middleware that validates bearer tokens and stores the
// tenant and actor in context. Every route behind it is tenant-scoped: the
// tenant always comes from the token, never from the request body or path.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			tenantID, err := domain.ParseTenantID(claims.TenantID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - token without tenant",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Token is missing tenant claim")
				return
			}

			ctx = requestcontext.WithTenantID(ctx, tenantID)
			if claims.Actor != "" {
				ctx = requestcontext.WithActor(ctx, claims.Actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

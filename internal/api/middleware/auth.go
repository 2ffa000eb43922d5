package middleware

import (
	"context"
	"net/http"

	"github.com/campus-events/server/internal/api/problem"
	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/domain/events"
)

type contextKey string

const actorKey contextKey = "actor"

// ActorFrom returns the authenticated caller stored by BearerAuth. The second
// return is false on unauthenticated requests.
func ActorFrom(ctx context.Context) (events.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(events.Actor)
	return actor, ok
}

// BearerAuth validates the Authorization header and stores the caller identity
// in the request context. Requests without a valid token get 401.
func BearerAuth(tokens *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env)
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env)
				return
			}

			actor := events.Actor{
				ULID:  claims.Subject,
				Name:  claims.Name,
				Email: claims.Email,
				Role:  claims.Role,
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects non-admin callers with 403. Must run after BearerAuth.
func RequireAdmin(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", auth.ErrMissingToken, env)
				return
			}
			if !auth.IsAdmin(actor.Role) {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", events.ErrForbidden, env)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

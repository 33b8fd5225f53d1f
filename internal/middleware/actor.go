package middleware

import (
	"context"
	"net/http"

	"kudos-cafe/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Headers set by the identity gateway in front of the API.
const (
	ActorIDHeader   = "X-Actor-ID"
	ActorRoleHeader = "X-Actor-Role"
)

type actorKey struct{}

// WithActor returns a copy of ctx carrying the actor.
func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored in ctx, or the zero Actor for
// anonymous requests.
func ActorFrom(ctx context.Context) model.Actor {
	actor, _ := ctx.Value(actorKey{}).(model.Actor)
	return actor
}

// Actor resolves the caller from the gateway headers. Requests without an
// actor ID continue anonymously; a malformed ID or role is rejected.
func Actor(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := r.Header.Get(ActorIDHeader)
			if rawID == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := uuid.Parse(rawID)
			if err != nil || id == uuid.Nil {
				logger.Warn().Str("path", r.URL.Path).Msg("malformed actor id")
				writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "malformed actor id")
				return
			}

			role := model.Role(r.Header.Get(ActorRoleHeader))
			switch role {
			case "":
				role = model.RoleCustomer
			case model.RoleCustomer, model.RoleAdmin:
			default:
				logger.Warn().Str("path", r.URL.Path).Str("role", string(role)).Msg("unknown actor role")
				writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "unknown actor role")
				return
			}

			ctx := WithActor(r.Context(), model.Actor{ID: id, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActor rejects anonymous requests.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ActorFrom(r.Context()).ID == uuid.Nil {
			writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from anyone but staff.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := ActorFrom(r.Context())
		if actor.ID == uuid.Nil {
			writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required")
			return
		}
		if !actor.IsAdmin() {
			writeError(w, http.StatusForbidden, model.ErrCodeForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

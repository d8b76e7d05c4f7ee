package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/civicroot/platform/internal/shared/config"
	"github.com/civicroot/platform/internal/shared/types"
)

type contextKey string

const (
	ActorContextKey contextKey = "actor"
)

// Actor types recognized in JWT claims.
const (
	ActorCitizen   = "citizen"
	ActorOrgMember = "org-member"
	ActorAdmin     = "admin"
)

// Actor represents the authenticated caller from JWT claims
type Actor struct {
	ID    types.ID `json:"sub"`
	Name  string   `json:"name"`
	Type  string   `json:"actor_type"` // citizen, org-member, admin
	OrgID types.ID `json:"org_id"`
}

// Claims extends JWT claims with platform-specific data
type Claims struct {
	jwt.RegisteredClaims
	Name      string `json:"name"`
	ActorType string `json:"actor_type"`
	OrgID     string `json:"org_id,omitempty"`
}

// Middleware creates JWT authentication middleware. When auth is disabled
// in config the middleware is a pass-through and handlers fall back to
// actor fields supplied in request bodies.
func Middleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(*Claims)
			if !ok || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			actor := &Actor{
				ID:    types.ID(claims.Subject),
				Name:  claims.Name,
				Type:  claims.ActorType,
				OrgID: types.ID(claims.OrgID),
			}

			ctx := context.WithValue(r.Context(), ActorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActor extracts the actor from request context
func GetActor(ctx context.Context) *Actor {
	actor, ok := ctx.Value(ActorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return actor
}

// RequireTypes creates middleware that requires one of the given actor types
func RequireTypes(actorTypes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActor(r.Context())
			if actor == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			for _, t := range actorTypes {
				if actor.Type == t {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

// IsAdmin checks if the actor is an admin
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Type == ActorAdmin
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

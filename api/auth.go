package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/foco/nomina/hr"
)

// =============================================================================
// TOKENS
// =============================================================================

const tokenTTL = 12 * time.Hour

// Auth issues and verifies HS256 bearer tokens. The "sub" claim is the
// employee id; the built-in admin id needs no directory record.
type Auth struct {
	ja      *jwtauth.JWTAuth
	adminID hr.EmployeeID
}

func NewAuth(secret string, adminID string) *Auth {
	return &Auth{
		ja:      jwtauth.New("HS256", []byte(secret), nil, jwt.WithAcceptableSkew(30*time.Second)),
		adminID: hr.EmployeeID(adminID),
	}
}

// Issue signs a token for id. It carries no role claims.
func (a *Auth) Issue(id hr.EmployeeID) (string, error) {
	claims := map[string]any{"sub": string(id)}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, tokenTTL)

	_, token, err := a.ja.Encode(claims)
	return token, err
}

// =============================================================================
// ACTOR RESOLUTION
// =============================================================================

type ctxKey int

const actorKey ctxKey = iota

var errUnknownActor = errors.New("token subject is not a known employee")

// resolveActor turns the verified token into an hr.Actor. Roles come from
// the current directory record, not from the token, so flag changes apply
// without reissuing tokens.
func (a *Auth) resolveActor(store hr.EmployeeStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token", err)
				return
			}
			if token == nil {
				writeError(w, http.StatusUnauthorized, "Invalid token", jwtauth.ErrNoTokenFound)
				return
			}
			sub, _ := claims["sub"].(string)
			id := hr.ParseEmployeeID(sub)
			if id == "" {
				writeError(w, http.StatusUnauthorized, "Invalid token", errUnknownActor)
				return
			}

			var actor hr.Actor
			if id == a.adminID {
				actor = hr.AdminActor(id)
			} else {
				emp, err := store.GetEmployee(r.Context(), id)
				if err != nil {
					writeError(w, http.StatusInternalServerError, "Failed to resolve actor", err)
					return
				}
				if emp == nil {
					writeError(w, http.StatusUnauthorized, "Invalid token", errUnknownActor)
					return
				}
				actor = emp.Actor()
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

// actorFrom returns the actor set by resolveActor.
func actorFrom(ctx context.Context) hr.Actor {
	actor, _ := ctx.Value(actorKey).(hr.Actor)
	return actor
}

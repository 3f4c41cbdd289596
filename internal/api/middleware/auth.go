package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/lukewarren/dashboard-auth/internal/domain"
	"github.com/lukewarren/dashboard-auth/internal/service"
)

type contextKey string

const authKey contextKey = "auth"

// auth is the per-request memoized result of the session lookup. It is
// populated once by RequestGuard; handlers read it through CurrentUser and
// never trigger a second validation.
type auth struct {
	user    *domain.User
	session *domain.Session
}

// RequestGuard resolves the current user from the session cookie and stores
// the result in the request context. It rewrites the cookie when the
// session was rotated and clears it when the token is invalid. Requests
// without a cookie proceed unauthenticated without touching storage.
func RequestGuard(sessions *service.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(service.SessionCookieName)
			if err != nil {
				ctx := context.WithValue(r.Context(), authKey, &auth{})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			user, session, err := sessions.ValidateSession(r.Context(), cookie.Value)
			if err != nil {
				// Storage trouble; proceed unauthenticated rather than
				// failing the whole request.
				log.Printf("ERROR [middleware.RequestGuard] session validation failed: %v", err)
				ctx := context.WithValue(r.Context(), authKey, &auth{})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if session == nil {
				http.SetCookie(w, sessions.BlankSessionCookie())
			} else if session.Fresh {
				http.SetCookie(w, sessions.SessionCookie(session))
			}

			ctx := context.WithValue(r.Context(), authKey, &auth{user: user, session: session})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the memoized (user, session) pair for this request.
// Both are nil when the request carries no valid session.
func CurrentUser(ctx context.Context) (*domain.User, *domain.Session) {
	a, ok := ctx.Value(authKey).(*auth)
	if !ok {
		return nil, nil
	}
	return a.user, a.session
}

// RequireAuth rejects unauthenticated requests with a 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := CurrentUser(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose user does not hold the admin role.
// Must run inside RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := CurrentUser(r.Context())
		if user == nil || user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

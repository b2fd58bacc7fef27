/*
auth.go - Session resolution middleware

PURPOSE:
  Thin boundary to the external identity system. A request carries an
  opaque session token; the provider resolves it to {employee_id, role}
  or nothing. This API ships a header-token provider that treats the
  token as the employee id and reads the role from the profile store -
  a stand-in with no invariants of its own, swapped out wholesale when
  a real identity system is wired in.

SEE ALSO:
  - server.go: Applies the middleware per route group
*/
package api

import (
	"context"
	"net/http"

	"github.com/czprofess-design/MieHair/shift"
)

// SessionHeader carries the opaque session token.
const SessionHeader = "X-Session-Token"

// SessionProvider resolves a request to the acting caller.
type SessionProvider interface {
	Current(r *http.Request) (shift.Session, bool)
}

// ProfileSessions resolves the token as an employee id against the
// profile store.
type ProfileSessions struct {
	Profiles shift.ProfileStore
}

func (p *ProfileSessions) Current(r *http.Request) (shift.Session, bool) {
	token := r.Header.Get(SessionHeader)
	if token == "" {
		return shift.Session{}, false
	}
	profile, err := p.Profiles.GetProfile(r.Context(), shift.EmployeeID(token))
	if err != nil {
		return shift.Session{}, false
	}
	return shift.Session{EmployeeID: profile.ID, Role: profile.Role}, true
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type sessionKey struct{}

// RequireSession rejects unauthenticated requests and stashes the
// session in the request context.
func RequireSession(provider SessionProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := provider.Current(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "session required", nil)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom extracts the session placed by RequireSession.
func SessionFrom(ctx context.Context) (shift.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(shift.Session)
	return sess, ok
}

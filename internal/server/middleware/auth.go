package middleware

import (
	"net/http"
	"strings"

	"github.com/timedrop/tdadmin/internal/session"
)

// Gate is the part of session.Service the auth gate consults.
type Gate interface {
	State() session.State
	Authorize(key string) bool
}

// AuthGate admits a request only while the session is authenticated and
// the request carries the console cookie issued at login. Paths in public
// pass through. Browsers asking for HTML are redirected to the login
// route; everything else gets a 401 JSON body.
func AuthGate(gate Gate, public ...string) func(http.Handler) http.Handler {
	open := make(map[string]bool, len(public))
	for _, p := range public {
		open[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if open[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if gate.State() != session.StateAuthenticated {
				deny(w, r, "not logged in")
				return
			}
			c, err := r.Cookie(session.CookieName)
			if err != nil || !gate.Authorize(c.Value) {
				deny(w, r, "invalid console session")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, msg string) {
	if wantsHTML(r) {
		http.Redirect(w, r, session.LoginRoute, http.StatusFound)
		return
	}
	writeUnauthorized(w, msg)
}

func wantsHTML(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/ws" {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// writeUnauthorized sends a 401 response with a JSON error body.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}

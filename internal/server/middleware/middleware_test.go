package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/timedrop/tdadmin/internal/session"
)

type fakeGate struct {
	state session.State
	key   string
}

func (g fakeGate) State() session.State { return g.state }

func (g fakeGate) Authorize(key string) bool { return key != "" && key == g.key }

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestAuthGate(t *testing.T) {
	authed := fakeGate{state: session.StateAuthenticated, key: "k1"}
	tests := []struct {
		name     string
		gate     fakeGate
		path     string
		cookie   string
		accept   string
		want     int
		location string
	}{
		{"public path", fakeGate{}, "/api/health", "", "", http.StatusTeapot, ""},
		{"no session api", fakeGate{}, "/api/users", "", "", http.StatusUnauthorized, ""},
		{"no session page", fakeGate{}, "/markets", "", "text/html", http.StatusFound, session.LoginRoute},
		{"api never redirects", fakeGate{}, "/api/users", "", "text/html", http.StatusUnauthorized, ""},
		{"missing cookie", authed, "/api/users", "", "", http.StatusUnauthorized, ""},
		{"wrong cookie", authed, "/api/users", "k2", "", http.StatusUnauthorized, ""},
		{"admitted", authed, "/api/users", "k1", "", http.StatusTeapot, ""},
		{"loading is not authenticated", fakeGate{state: session.StateLoading, key: "k1"}, "/api/users", "k1", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			w := httptest.NewRecorder()
			AuthGate(tt.gate, session.LoginRoute, "/api/health")(ok).ServeHTTP(w, r)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if got := w.Header().Get("Location"); got != tt.location {
				t.Fatalf("location = %q", got)
			}
		})
	}
}

type countingLimiter struct {
	calls int
	keys  []string
	err   error
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	l.calls++
	l.keys = append(l.keys, key)
	return l.calls <= limit, l.err
}

func TestRateLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := &countingLimiter{}
	h := RateLimit(l, "login", 2, time.Minute, logger)(ok)

	codes := make([]int, 0, 3)
	for range 3 {
		r := httptest.NewRequest(http.MethodPost, "/login", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusTeapot || codes[1] != http.StatusTeapot || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
	if l.keys[0] != "login:203.0.113.7" {
		t.Fatalf("key = %q", l.keys[0])
	}

	failing := &countingLimiter{err: errors.New("redis down")}
	w := httptest.NewRecorder()
	RateLimit(failing, "login", 0, time.Minute, logger)(ok).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	if w.Code != http.StatusTeapot {
		t.Fatalf("limiter error should fail open, got %d", w.Code)
	}
}

func TestLoggingRequestID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seen string
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if seen == "" || w.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("request id %q, header %q", seen, w.Header().Get(RequestIDHeader))
	}

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set(RequestIDHeader, "upstream-1")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen != "upstream-1" {
		t.Fatalf("upstream id not kept: %q", seen)
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := CORS([]string{"https://admin.timedrop.live"})(next)

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"allowed origin", http.MethodGet, "https://admin.timedrop.live", http.StatusTeapot, "https://admin.timedrop.live"},
		{"foreign origin", http.MethodGet, "https://evil.example", http.StatusTeapot, ""},
		{"no origin", http.MethodGet, "", http.StatusTeapot, ""},
		{"preflight", http.MethodOptions, "https://admin.timedrop.live", http.StatusNoContent, "https://admin.timedrop.live"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/users", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Fatalf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if tt.wantAllow != "" && rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
				t.Fatal("credentials not allowed")
			}
		})
	}
}

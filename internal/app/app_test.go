package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/timedrop/tdadmin/internal/config"
	"github.com/timedrop/tdadmin/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok-r" {
				http.Error(w, "no token", http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"token":"tok-r","user":{"id":"op","email":"ops@example.com","role":"admin"}}`)
	})
	mux.HandleFunc("GET /api/admin/users", authed(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"users":[{"id":"u-1","email":"a@example.com","role":"user"},{"id":"u-2","email":"b@example.com","role":"user"}]}`)
	}))
	mux.HandleFunc("GET /api/admin/markets", authed(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"markets":[]}`)
	}))
	mux.HandleFunc("GET /api/admin/orders", authed(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"orders":[]}`)
	}))
	mux.HandleFunc("GET /api/admin/withdrawals", authed(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"withdrawals":[]}`)
	}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestReportModeSendsDashboard(t *testing.T) {
	api := fakeAPI(t)

	var (
		mu      sync.Mutex
		content string
	)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Content string `json:"content"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		content = body.Content
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(hook.Close)

	cfg := config.Defaults()
	cfg.Mode = "report"
	cfg.API.BaseURL = api.URL + "/api"
	cfg.Session.ConsoleSecret = "s"
	cfg.Notify.DiscordWebhookURL = hook.URL
	cfg.Operator = config.OperatorConfig{Email: "ops@example.com", Password: "pw"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	a := New(&cfg, discardLogger())
	defer a.Close()
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(content, "Users: 2 (") {
		t.Errorf("webhook content = %q", content)
	}
}

func TestReportModeLoginFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Invalid credentials"}`, http.StatusUnauthorized)
	})
	api := httptest.NewServer(mux)
	t.Cleanup(api.Close)

	cfg := config.Defaults()
	cfg.Mode = "report"
	cfg.API.BaseURL = api.URL + "/api"
	cfg.Operator = config.OperatorConfig{Email: "ops@example.com", Password: "bad"}

	a := New(&cfg, discardLogger())
	defer a.Close()
	if err := a.Run(context.Background()); err == nil {
		t.Fatal("expected login error")
	}
}

func TestFormatReport(t *testing.T) {
	got := formatReport(service.Dashboard{
		TotalUsers:         3,
		ActiveUsers:        2,
		TotalMarkets:       4,
		OpenMarkets:        1,
		TotalOrders:        5,
		OrderVolume:        decimal.RequireFromString("12.5"),
		PendingWithdrawals: 1,
		PendingAmount:      decimal.NewFromInt(250),
		GeneratedAt:        time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC),
	})
	for _, want := range []string{
		"Users: 3 (2 active)",
		"Markets: 4 (1 open)",
		"Orders: 5, volume 12.50",
		"Pending withdrawals: 1, amount 250.00",
		"Generated 2026-10-15T08:00:00Z",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    bool
	}{
		{"no origin header", nil, "", true},
		{"same host", nil, "http://console.local:8080", true},
		{"foreign host", nil, "http://evil.example", false},
		{"listed", []string{"http://ui.example"}, "http://ui.example", true},
		{"wildcard", []string{"*"}, "http://anything.example", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://console.local:8080/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := originChecker(tt.origins)(r); got != tt.want {
				t.Errorf("originChecker = %v, want %v", got, tt.want)
			}
		})
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/platform/timedrop"
)

// backend is an in-memory Timedrop API. Every handler counts its pattern
// and honours injected failures.
type backend struct {
	mu          sync.Mutex
	users       []domain.User
	markets     []domain.Market
	orders      []domain.Order
	withdrawals []domain.Withdrawal
	agents      []domain.Agent
	calls       map[string]int
	fail        map[string]int
	lastBody    map[string]map[string]any
	nextID      int
}

func newBackend() *backend {
	return &backend{
		calls:    map[string]int{},
		fail:     map[string]int{},
		lastBody: map[string]map[string]any{},
	}
}

func (b *backend) count(pattern string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[pattern]
}

func (b *backend) failWith(pattern string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[pattern] = status
}

func (b *backend) body(pattern string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastBody[pattern]
}

// enter records the call and reports whether the handler should proceed.
// The caller must hold no lock; on success the lock is held.
func (b *backend) enter(w http.ResponseWriter, r *http.Request) bool {
	var body map[string]any
	if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			json.Unmarshal(raw, &body)
		}
	}

	b.mu.Lock()
	b.calls[r.Pattern]++
	b.lastBody[r.Pattern] = body
	if status := b.fail[r.Pattern]; status != 0 {
		b.mu.Unlock()
		http.Error(w, fmt.Sprintf("injected %d", status), status)
		return false
	}
	return true
}

func (b *backend) id(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s-%d", prefix, b.nextID)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{"users": b.users})
	})
	mux.HandleFunc("POST /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		body := b.lastBody[r.Pattern]
		u := domain.User{ID: b.id("u"), Email: fmt.Sprint(body["email"]), Role: domain.Role(fmt.Sprint(body["role"])), IsVerified: true}
		b.users = append(b.users, u)
		writeJSON(w, u)
	})
	mux.HandleFunc("PUT /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		for i := range b.users {
			if b.users[i].ID == r.PathValue("id") {
				if role, ok := b.lastBody[r.Pattern]["role"].(string); ok {
					b.users[i].Role = domain.Role(role)
				}
				writeJSON(w, b.users[i])
				return
			}
		}
		http.Error(w, "User not found", http.StatusNotFound)
	})
	mux.HandleFunc("DELETE /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /api/admin/markets", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{"markets": b.markets})
	})
	mux.HandleFunc("POST /api/admin/markets", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		body := b.lastBody[r.Pattern]
		m := domain.Market{
			ID:       b.id("m"),
			Question: fmt.Sprint(body["question"]),
			Category: fmt.Sprint(body["category"]),
			Status:   domain.MarketStatusOpen,
		}
		if img, ok := body["image"].(map[string]any); ok {
			m.Image = &domain.MarketImage{URL: fmt.Sprint(img["url"])}
		}
		b.markets = append(b.markets, m)
		writeJSON(w, m)
	})
	mux.HandleFunc("PUT /api/admin/markets/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		for i := range b.markets {
			if b.markets[i].ID == r.PathValue("id") {
				if s, ok := b.lastBody[r.Pattern]["status"].(string); ok {
					b.markets[i].Status = domain.MarketStatus(s)
				}
				writeJSON(w, b.markets[i])
				return
			}
		}
		http.Error(w, "Market not found", http.StatusNotFound)
	})
	mux.HandleFunc("POST /api/markets/resolve", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		id := fmt.Sprint(b.lastBody[r.Pattern]["marketId"])
		for i := range b.markets {
			if b.markets[i].ID == id {
				b.markets[i].Status = domain.MarketStatusResolved
			}
		}
		writeJSON(w, map[string]string{"message": "resolved"})
	})

	mux.HandleFunc("GET /api/admin/orders", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{"orders": b.orders})
	})
	mux.HandleFunc("GET /api/admin/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		for _, o := range b.orders {
			if o.ID == r.PathValue("id") {
				writeJSON(w, o)
				return
			}
		}
		http.Error(w, "Order not found", http.StatusNotFound)
	})

	mux.HandleFunc("GET /api/admin/withdrawals", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{"withdrawals": b.withdrawals})
	})
	mux.HandleFunc("PATCH /api/admin/withdrawals/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		for i := range b.withdrawals {
			if b.withdrawals[i].ID == r.PathValue("id") {
				b.withdrawals[i].Status = domain.WithdrawalStatus(fmt.Sprint(b.lastBody[r.Pattern]["status"]))
				writeJSON(w, b.withdrawals[i])
				return
			}
		}
		http.Error(w, "Withdrawal not found", http.StatusNotFound)
	})

	mux.HandleFunc("GET /api/agents/all", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{
			"agents":     b.agents,
			"pagination": domain.Pagination{Page: 1, Limit: 100, Total: len(b.agents), TotalPages: 1},
		})
	})
	mux.HandleFunc("POST /api/agents/register", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		body := b.lastBody[r.Pattern]
		a := domain.Agent{
			ID:           b.id("a"),
			Name:         fmt.Sprint(body["name"]),
			Email:        fmt.Sprint(body["email"]),
			ReferralCode: fmt.Sprintf("REF%04d", b.nextID),
			IsActive:     true,
		}
		b.agents = append(b.agents, a)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{"agent": a, "message": "Agent registered"})
	})
	mux.HandleFunc("PATCH /api/agents/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		active, _ := b.lastBody[r.Pattern]["isActive"].(bool)
		for i := range b.agents {
			if b.agents[i].ID == r.PathValue("id") {
				b.agents[i].IsActive = active
			}
		}
		writeJSON(w, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("GET /api/referrals/stats", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{
			"stats": map[string]any{"totalReferrals": 3, "totalVolume": "150.5"},
		})
	})

	mux.HandleFunc("GET /api/admin/revenue-stats", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{"totalRevenue": 1200, "totalVolume": "5400.25", "todaysRevenue": 80})
	})
	mux.HandleFunc("GET /api/admin/recent-activities", func(w http.ResponseWriter, r *http.Request) {
		if !b.enter(w, r) {
			return
		}
		defer b.mu.Unlock()
		writeJSON(w, []map[string]any{{"id": "act-1", "type": "Withdrawal", "user": "ada@example.com", "createdAt": time.Now()}})
	})

	return mux
}

type fixedToken string

func (t fixedToken) Token() (string, bool) { return string(t), true }

type fakeGuard struct {
	mu      sync.Mutex
	handled []error
	dropped bool
}

func (g *fakeGuard) HandleError(_ context.Context, err error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handled = append(g.handled, err)
	if isUnauthorized(err) {
		g.dropped = true
	}
	return err
}

func (g *fakeGuard) Current() (domain.Profile, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dropped {
		return domain.Profile{}, false
	}
	return domain.Profile{ID: "op", Email: "ops@example.com", Role: domain.RoleAdmin}, true
}

type fakeToaster struct {
	mu     sync.Mutex
	toasts []domain.Toast
}

func (f *fakeToaster) add(kind domain.ToastKind, event, title, msg string) domain.Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := domain.Toast{Kind: kind, Event: event, Title: title, Message: msg}
	f.toasts = append(f.toasts, t)
	return t
}

func (f *fakeToaster) Success(_ context.Context, event, title, msg string) domain.Toast {
	return f.add(domain.ToastSuccess, event, title, msg)
}

func (f *fakeToaster) Error(_ context.Context, event, title string, err error) domain.Toast {
	return f.add(domain.ToastError, event, title, err.Error())
}

func (f *fakeToaster) last() domain.Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.toasts) == 0 {
		return domain.Toast{}
	}
	return f.toasts[len(f.toasts)-1]
}

type memAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *memAudit) Log(_ context.Context, e domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAudit) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEntry(nil), m.entries...), nil
}

type harness struct {
	be     *backend
	api    *timedrop.Client
	guard  *fakeGuard
	toasts *fakeToaster
	audit  *memAudit
	deps   Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	be := newBackend()
	srv := httptest.NewServer(be.handler())
	t.Cleanup(srv.Close)

	h := &harness{
		be:     be,
		api:    timedrop.NewClient(srv.URL+"/api", fixedToken("tok"), 5*time.Second),
		guard:  &fakeGuard{},
		toasts: &fakeToaster{},
		audit:  &memAudit{},
	}
	h.deps = Deps{
		Session:  h.guard,
		Toasts:   h.toasts,
		Audit:    h.audit,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		PageSize: 10,
	}
	return h
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func isUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/timedrop/tdadmin/internal/domain"
)

type recordingSender struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return r.err
}

func (r *recordingSender) Name() string { return "recorder" }

func (r *recordingSender) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestToastsReachBusAndHistory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewLocalBus()
	sub, err := bus.Subscribe(ctx, domain.ToastChannel)
	if err != nil {
		t.Fatal(err)
	}

	n := NewNotifier(nil, nil, bus, quietLogger())
	n.Success(ctx, "market.created", "Market created", "Will it rain?")
	n.Error(ctx, "users.fetch", "Failed to load users", errors.New("HTTP 500: boom"))

	for _, want := range []string{"Market created", "Failed to load users"} {
		select {
		case raw := <-sub:
			var got domain.Toast
			if err := json.Unmarshal(raw, &got); err != nil {
				t.Fatal(err)
			}
			if got.Title != want || got.ID == "" {
				t.Fatalf("toast = %+v, want title %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("no toast %q on bus", want)
		}
	}

	recent := n.Recent(10)
	if len(recent) != 2 || recent[0].Kind != domain.ToastError || recent[0].Message != "HTTP 500: boom" {
		t.Fatalf("recent = %+v", recent)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	n := NewNotifier(nil, nil, nil, quietLogger())
	for i := 0; i < historySize+5; i++ {
		n.Success(context.Background(), "x", "t", "m")
	}
	if got := len(n.Recent(0)); got != historySize {
		t.Fatalf("history = %d", got)
	}
}

func TestSendersFilteredByEvent(t *testing.T) {
	rec := &recordingSender{}
	n := NewNotifier([]Sender{rec}, []string{"withdrawal.approved", " market.resolved "}, nil, quietLogger())
	ctx := context.Background()

	n.Success(ctx, "withdrawal.approved", "Withdrawal approved", "w1")
	n.Success(ctx, "users.fetch", "Users loaded", "")
	n.Success(ctx, "market.resolved", "Market resolved", "m1")
	n.Close()

	got := rec.sent()
	if len(got) != 2 {
		t.Fatalf("sent = %v", got)
	}
	if err := n.Notify(ctx, "users.fetch", "t", "m"); err != nil {
		t.Fatal(err)
	}
	if len(rec.sent()) != 2 {
		t.Fatal("filtered event reached sender")
	}
}

func TestDispatchCombinesErrors(t *testing.T) {
	bad := &recordingSender{err: errors.New("down")}
	n := NewNotifier([]Sender{bad, &recordingSender{}}, nil, nil, quietLogger())
	err := n.Notify(context.Background(), "report", "Daily report", "ok")
	if err == nil || !strings.Contains(err.Error(), "1 sender(s) failed") {
		t.Fatalf("err = %v", err)
	}
}

func TestTelegramEscapesHTML(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	s := NewTelegramSender("TOKEN", "42")
	s.apiBase = srv.URL
	if err := s.Send(context.Background(), "Failed <users>", "a & b"); err != nil {
		t.Fatal(err)
	}
	if got["text"] != "<b>Failed &lt;users&gt;</b>\na &amp; b" || got["chat_id"] != "42" {
		t.Fatalf("payload = %v", got)
	}
}

func TestDiscordReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad webhook", http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
	if err == nil || !strings.Contains(err.Error(), "unexpected status 404") {
		t.Fatalf("err = %v", err)
	}
}

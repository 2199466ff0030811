package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/timedrop/tdadmin/internal/domain"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), ClientConfig{Addr: mr.Addr(), Prefix: "td:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestSessionStoreRoundTrip(t *testing.T) {
	c, mr := newTestClient(t)
	store := NewSessionStore(c, 0)
	ctx := context.Background()

	token, role, err := store.Load(ctx)
	if err != nil || token != "" || role != "" {
		t.Fatalf("empty store = %q %q %v", token, role, err)
	}

	if err := store.Save(ctx, "tok-1", domain.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	if got := mr.HGet("td:session", domain.TokenKey); got != "tok-1" {
		t.Fatalf("stored token = %q", got)
	}
	if ttl := mr.TTL("td:session"); ttl != 0 {
		t.Fatalf("ttl = %s, want none", ttl)
	}

	if err := store.Save(ctx, "tok-2", domain.RoleManager); err != nil {
		t.Fatal(err)
	}
	token, role, err = store.Load(ctx)
	if err != nil || token != "tok-2" || role != domain.RoleManager {
		t.Fatalf("load = %q %q %v", token, role, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("td:session") {
		t.Fatal("session key survived Clear")
	}
	if token, _, _ := store.Load(ctx); token != "" {
		t.Fatalf("token after Clear = %q", token)
	}
}

func TestSessionStoreExpires(t *testing.T) {
	c, mr := newTestClient(t)
	store := NewSessionStore(c, time.Hour)
	ctx := context.Background()

	if err := store.Save(ctx, "tok-1", domain.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("td:session"); ttl != time.Hour {
		t.Fatalf("ttl = %s, want 1h", ttl)
	}

	mr.FastForward(time.Hour + time.Second)
	if token, _, _ := store.Load(ctx); token != "" {
		t.Fatalf("expired session still loads %q", token)
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	c, _ := newTestClient(t)
	rl := NewRateLimiter(c)
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	allow := func(key string) bool {
		t.Helper()
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		return ok
	}

	for i := 0; i < 3; i++ {
		if !allow("login:10.0.0.1") {
			t.Fatalf("attempt %d denied", i+1)
		}
		now = now.Add(10 * time.Second)
	}
	if allow("login:10.0.0.1") {
		t.Fatal("fourth attempt inside the window allowed")
	}
	if !allow("login:10.0.0.2") {
		t.Fatal("another address shares the window")
	}

	// The first attempt was at 08:00:00; at 08:01:01 it has left the window.
	now = time.Date(2026, 10, 15, 8, 1, 1, 0, time.UTC)
	if !allow("login:10.0.0.1") {
		t.Fatal("attempt after the oldest one expired denied")
	}
	if allow("login:10.0.0.1") {
		t.Fatal("window should be full again")
	}
}

func TestToastBusDelivers(t *testing.T) {
	c, _ := newTestClient(t)
	bus := NewToastBus(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := bus.Subscribe(ctx, "ch:toast")
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Publish(context.Background(), "ch:toast", []byte(`{"title":"Market created"}`)); err != nil {
		t.Fatal(err)
	}
	if err := bus.Publish(context.Background(), "ch:other", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-msgs:
		if string(got) != `{"title":"Market created"}` {
			t.Fatalf("payload = %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no toast delivered")
	}

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-msgs:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel not closed after cancel")
		}
	}
}

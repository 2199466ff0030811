package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/timedrop/tdadmin/internal/domain"
)

func TestRefreshErrorKeepsItems(t *testing.T) {
	h := newHarness(t)
	seedUsers(h)
	v := NewUsersView(h.api, h.deps)
	ctx := context.Background()

	if _, err := v.Page(ctx, Params{}); err != nil {
		t.Fatal(err)
	}
	h.be.failWith("GET /api/admin/users", http.StatusInternalServerError)

	snap, err := v.Page(ctx, Params{Refresh: true})
	if !errors.Is(err, domain.ErrRejected) {
		t.Fatalf("err = %v", err)
	}
	if snap.TotalItems != 3 || snap.Err == "" || snap.Loading {
		t.Fatalf("snapshot = %+v", snap)
	}
	if got := h.toasts.last(); got.Kind != domain.ToastError || got.Event != "users.fetch" {
		t.Fatalf("toast = %+v", got)
	}
	if h.guard.dropped {
		t.Fatal("server error dropped the session")
	}
}

func TestAuthFailureReachesSession(t *testing.T) {
	h := newHarness(t)
	v := NewOrdersView(h.api, h.deps)
	h.be.failWith("GET /api/admin/orders", http.StatusUnauthorized)

	_, err := v.Page(context.Background(), Params{})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if !h.guard.dropped {
		t.Fatal("session not dropped on 401")
	}
}

func TestPageParamsResetPage(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 25; i++ {
		h.be.orders = append(h.be.orders, domain.Order{ID: string(rune('a'+i)) + "-order", Status: "filled"})
	}
	v := NewOrdersView(h.api, h.deps)
	ctx := context.Background()

	snap, _ := v.Page(ctx, Params{Page: 3})
	if snap.Page != 3 || len(snap.Items) != 5 || snap.TotalPages != 3 {
		t.Fatalf("page 3 = %+v", snap)
	}
	snap, _ = v.Page(ctx, Params{Query: "order"})
	if snap.Page != 1 {
		t.Fatalf("query change kept page %d", snap.Page)
	}
	snap, _ = v.Page(ctx, Params{Query: "order", Page: 2, PageSize: 20})
	if snap.Page != 2 || len(snap.Items) != 5 {
		t.Fatalf("resize = %+v", snap)
	}
}

func TestRequestedPageSurvivesFetch(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 25; i++ {
		h.be.orders = append(h.be.orders, domain.Order{ID: string(rune('a'+i)) + "-order", Status: "filled"})
	}
	v := NewOrdersView(h.api, h.deps)
	ctx := context.Background()

	tests := []struct {
		name   string
		params Params
		want   int
	}{
		{"cold list", Params{Page: 2}, 2},
		{"refresh", Params{Page: 3, Refresh: true}, 3},
		{"refresh without page resets", Params{Refresh: true}, 1},
		{"page past the end clamps", Params{Page: 9, Refresh: true}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := v.Page(ctx, tt.params)
			if err != nil {
				t.Fatal(err)
			}
			if snap.Page != tt.want {
				t.Fatalf("page = %d, want %d", snap.Page, tt.want)
			}
		})
	}
}

func TestOrderDetail(t *testing.T) {
	h := newHarness(t)
	h.be.orders = []domain.Order{{ID: "o-1", MarketID: "m-1", Status: "open", Amount: dec("5")}}
	v := NewOrdersView(h.api, h.deps)

	o, err := v.Detail(context.Background(), "o-1")
	if err != nil || o.MarketID != "m-1" {
		t.Fatalf("detail = %+v %v", o, err)
	}
	if _, err := v.Detail(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

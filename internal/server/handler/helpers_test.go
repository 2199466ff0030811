package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/timedrop/tdadmin/internal/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("timedrop: list users: %w", domain.ErrUnauthorized), http.StatusUnauthorized},
		{domain.ErrForbiddenRole, http.StatusUnauthorized},
		{fmt.Errorf("timedrop: resolve market m1: %w", domain.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("get order: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("title: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrTransport, http.StatusBadGateway},
		{errors.New("boom"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParseParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/users?q=+ada+&status=banned&role=&page=2&page_size=-5&refresh=true&other=x", nil)
	p := parseParams(r, "status", "role")

	if p.Query != "ada" || p.Page != 2 || p.PageSize != 0 || !p.Refresh {
		t.Fatalf("params = %+v", p)
	}
	if len(p.Filters) != 1 || p.Filters["status"] != "banned" {
		t.Fatalf("filters = %v", p.Filters)
	}
}

func TestParseFormTime(t *testing.T) {
	got, err := parseFormTime("2026-11-01T18:30")
	if err != nil || !got.Equal(time.Date(2026, 11, 1, 18, 30, 0, 0, time.UTC)) {
		t.Fatalf("datetime-local = %v %v", got, err)
	}
	if got, err := parseFormTime(""); err != nil || !got.IsZero() {
		t.Fatalf("empty = %v %v", got, err)
	}
	if _, err := parseFormTime("tomorrow"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseListOpts(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/audit?limit=9999&offset=20&resource=markets&since=2026-10-01T00:00:00Z", nil)
	opts, err := parseListOpts(r)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Limit != 500 || opts.Offset != 20 || opts.Resource != "markets" || opts.Since == nil || opts.Until != nil {
		t.Fatalf("opts = %+v", opts)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/audit?until=yesterday", nil)
	if _, err := parseListOpts(r); err == nil {
		t.Fatal("expected error")
	}
}

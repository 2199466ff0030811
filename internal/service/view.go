// Package service holds one view-model per admin screen. Each view-model
// owns a listview.List, fetches through the Timedrop client, applies the
// mutation rule (patch locally on success, refetch when the response does
// not carry everything the screen shows) and routes every failure through
// the session so an expired token is dropped wherever it surfaces.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/listview"
)

// SessionGuard is the part of session.Service the view-models use.
type SessionGuard interface {
	HandleError(ctx context.Context, err error) error
	Current() (domain.Profile, bool)
}

// Toaster emits operator notifications.
type Toaster interface {
	Success(ctx context.Context, event, title, message string) domain.Toast
	Error(ctx context.Context, event, title string, err error) domain.Toast
}

// Deps are the collaborators shared by every view-model. Audit may be nil.
type Deps struct {
	Session  SessionGuard
	Toasts   Toaster
	Audit    domain.AuditStore
	Logger   *slog.Logger
	PageSize int
}

// Params are the list controls of a screen as sent by the UI.
type Params struct {
	Query    string
	Filters  map[string]string
	Page     int
	PageSize int
	// Refresh forces a refetch even when items are loaded.
	Refresh bool
}

func (p Params) apply(q func(listview.Query), page, size func(int)) {
	q(listview.Query{Text: p.Query, Filters: p.Filters})
	if p.PageSize > 0 {
		size(p.PageSize)
	}
	if p.Page > 0 {
		page(p.Page)
	}
}

type base struct {
	Deps
	resource string
	logger   *slog.Logger
}

func newBase(d Deps, resource string) base {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return base{Deps: d, resource: resource, logger: logger.With(slog.String("component", resource))}
}

// fail reports err to the session, toasts it and returns it.
func (b *base) fail(ctx context.Context, event, title string, err error) error {
	err = b.Session.HandleError(ctx, err)
	b.Toasts.Error(ctx, event, title, err)
	b.logger.WarnContext(ctx, title, slog.String("event", event), slog.String("error", err.Error()))
	return err
}

// record appends an audit entry for a mutation. Audit failures are logged
// and never fail the mutation. It must run before fail so the actor is
// still known after an auth failure.
func (b *base) record(ctx context.Context, action, target string, detail map[string]any, err error) {
	if b.Audit == nil {
		return
	}
	entry := domain.AuditEntry{
		Action:   action,
		Resource: b.resource,
		TargetID: target,
		Detail:   detail,
		Outcome:  domain.AuditOK,
	}
	if p, ok := b.Session.Current(); ok {
		entry.Actor = p.Email
	}
	if err != nil {
		entry.Outcome = domain.AuditFailed
		if entry.Detail == nil {
			entry.Detail = map[string]any{}
		}
		entry.Detail["error"] = err.Error()
	}
	if logErr := b.Audit.Log(ctx, entry); logErr != nil {
		b.logger.WarnContext(ctx, "audit log failed", slog.String("action", action), slog.String("error", logErr.Error()))
	}
}

// load runs one guarded fetch into l.
func load[T any](ctx context.Context, b *base, l *listview.List[T], fetch func(context.Context) ([]T, error)) error {
	ticket := l.Begin()
	items, err := fetch(ctx)
	if err != nil {
		if staleErr := l.Fail(ticket, err); staleErr != nil {
			b.logger.DebugContext(ctx, "superseded fetch failed", slog.String("error", err.Error()))
		}
		return b.fail(ctx, b.resource+".fetch", "Failed to load "+b.resource, err)
	}
	if staleErr := l.Commit(ticket, items); staleErr != nil {
		b.logger.DebugContext(ctx, "dropped superseded response", slog.String("error", staleErr.Error()))
	}
	return nil
}

// page applies p to l, fetches when nothing is loaded yet or a refresh is
// requested, and returns the current snapshot. A fetch resets the page, so
// a page asked for in the same call is applied again afterwards. The
// snapshot is returned even when the fetch fails so previously loaded
// items stay visible.
func page[T any](ctx context.Context, b *base, l *listview.List[T], p Params, fetch func(context.Context) ([]T, error)) (listview.Page[T], error) {
	p.apply(l.SetQuery, l.SetPage, l.SetPageSize)
	var err error
	if p.Refresh || !l.Loaded() {
		err = load(ctx, b, l, fetch)
		if p.Page > 0 {
			l.SetPage(p.Page)
		}
	}
	return l.Snapshot(), err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrInvalidInput)
}

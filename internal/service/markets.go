package service

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/listview"
)

// MarketsAPI is the slice of the Timedrop client the markets screen calls.
type MarketsAPI interface {
	ListMarkets(ctx context.Context) ([]domain.Market, error)
	CreateMarket(ctx context.Context, form domain.MarketForm) (domain.Market, error)
	SetMarketStatus(ctx context.Context, id string, status domain.MarketStatus) (domain.Market, error)
	ResolveMarket(ctx context.Context, id, outcome string) error
}

// ImageUpload is an image attached to the market form.
type ImageUpload struct {
	Name        string
	ContentType string
	Data        io.Reader
}

// MarketsView backs the markets screen.
type MarketsView struct {
	base
	api    MarketsAPI
	images domain.ImageHost
	list   *listview.List[domain.Market]
}

// NewMarketsView creates the markets view-model. images may be nil, in
// which case forms can still carry an already-hosted image URL.
func NewMarketsView(api MarketsAPI, images domain.ImageHost, d Deps) *MarketsView {
	return &MarketsView{
		base:   newBase(d, "markets"),
		api:    api,
		images: images,
		list:   listview.New(func(m domain.Market) string { return m.ID }, matchMarket, d.PageSize),
	}
}

func matchMarket(m domain.Market, q listview.Query) bool {
	return listview.Contains(q.Text, m.Question, m.Category, string(m.Status)) &&
		listview.Matches(q.Filter("status"), string(m.Status)) &&
		listview.Matches(q.Filter("category"), m.Category)
}

// Page returns the markets page for p.
func (v *MarketsView) Page(ctx context.Context, p Params) (listview.Page[domain.Market], error) {
	return page(ctx, &v.base, v.list, p, v.api.ListMarkets)
}

// Refresh refetches every market.
func (v *MarketsView) Refresh(ctx context.Context) error {
	return load(ctx, &v.base, v.list, v.api.ListMarkets)
}

// Create validates the form, uploads the optional image, creates the
// market and refetches.
func (v *MarketsView) Create(ctx context.Context, form domain.MarketForm, img *ImageUpload) (domain.Market, error) {
	form.Title = strings.TrimSpace(form.Title)
	switch {
	case form.Title == "":
		return domain.Market{}, invalid("market question is required")
	case !slices.Contains(domain.MarketCategories, form.Category):
		return domain.Market{}, invalid("unknown category %q", form.Category)
	case form.EndDate.IsZero():
		return domain.Market{}, invalid("end date is required")
	case !form.StartDate.IsZero() && !form.EndDate.After(form.StartDate):
		return domain.Market{}, invalid("end date must be after start date")
	}

	if img != nil {
		if v.images == nil {
			return domain.Market{}, invalid("image hosting is not configured")
		}
		url, err := v.images.Upload(ctx, img.Name, img.Data, img.ContentType)
		if err != nil {
			return domain.Market{}, v.fail(ctx, "market.image", "Failed to upload image", err)
		}
		form.ImageURL = url
		v.logger.InfoContext(ctx, "market image uploaded", slog.String("url", url))
	}

	m, err := v.api.CreateMarket(ctx, form)
	v.record(ctx, "create", m.ID, map[string]any{"question": form.Title, "category": form.Category}, err)
	if err != nil {
		return domain.Market{}, v.fail(ctx, "market.create", "Failed to create market", err)
	}
	v.Toasts.Success(ctx, "market.created", "Market created successfully", form.Title)

	// A failed refetch is toasted by load; the market was still created.
	_ = v.Refresh(ctx)
	return m, nil
}

// SetStatus sends a status change and patches the row. Setting the
// current status again is a successful no-op on the backend. Transitions
// the console does not offer are still sent; the backend decides.
func (v *MarketsView) SetStatus(ctx context.Context, id string, status domain.MarketStatus) (domain.Market, error) {
	if id == "" {
		return domain.Market{}, invalid("market id is required")
	}
	switch status {
	case domain.MarketStatusOpen, domain.MarketStatusClosed, domain.MarketStatusArchived:
	default:
		return domain.Market{}, invalid("status %q cannot be set directly", status)
	}
	if cur, ok := v.list.Get(id); ok && !cur.CanTransition(status) {
		v.logger.WarnContext(ctx, "unoffered market transition",
			slog.String("market_id", id),
			slog.String("from", string(cur.Status)),
			slog.String("to", string(status)),
		)
	}

	updated, err := v.api.SetMarketStatus(ctx, id, status)
	v.record(ctx, "status", id, map[string]any{"status": string(status)}, err)
	if err != nil {
		return domain.Market{}, v.fail(ctx, "market.status", "Failed to update market status", err)
	}

	v.list.Patch(id, func(m *domain.Market) {
		if updated.ID == id {
			*m = updated
		}
		m.Status = status
	})
	v.Toasts.Success(ctx, "market."+statusEvent(status), "Market status updated", id+" is now "+string(status))

	if cur, ok := v.list.Get(id); ok {
		return cur, nil
	}
	updated.Status = status
	return updated, nil
}

// Close moves a market to closed.
func (v *MarketsView) Close(ctx context.Context, id string) (domain.Market, error) {
	return v.SetStatus(ctx, id, domain.MarketStatusClosed)
}

// Archive moves a market to "archieve".
func (v *MarketsView) Archive(ctx context.Context, id string) (domain.Market, error) {
	return v.SetStatus(ctx, id, domain.MarketStatusArchived)
}

// Reopen moves a market back to Open.
func (v *MarketsView) Reopen(ctx context.Context, id string) (domain.Market, error) {
	return v.SetStatus(ctx, id, domain.MarketStatusOpen)
}

// Resolve settles a market with outcome, patches it to resolved and
// refetches, since resolution changes server-computed fields.
func (v *MarketsView) Resolve(ctx context.Context, id, outcome string) error {
	outcome = strings.TrimSpace(outcome)
	if id == "" || outcome == "" {
		return invalid("market id and outcome are required")
	}

	err := v.api.ResolveMarket(ctx, id, outcome)
	v.record(ctx, "resolve", id, map[string]any{"outcome": outcome}, err)
	if err != nil {
		return v.fail(ctx, "market.resolve", "Failed to resolve market", err)
	}

	v.list.Patch(id, func(m *domain.Market) { m.Status = domain.MarketStatusResolved })
	v.Toasts.Success(ctx, "market.resolved", "Market resolved successfully", id+": "+outcome)

	_ = v.Refresh(ctx)
	return nil
}

func statusEvent(s domain.MarketStatus) string {
	switch s {
	case domain.MarketStatusOpen:
		return "reopened"
	case domain.MarketStatusClosed:
		return "closed"
	default:
		return "archived"
	}
}

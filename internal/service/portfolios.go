package service

import (
	"context"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/listview"
)

// PortfoliosAPI is the slice of the Timedrop client the portfolios screen
// calls.
type PortfoliosAPI interface {
	ListPortfolios(ctx context.Context) ([]domain.Portfolio, error)
}

// PortfoliosView backs the read-only portfolios screen.
type PortfoliosView struct {
	base
	api  PortfoliosAPI
	list *listview.List[domain.Portfolio]
}

// NewPortfoliosView creates the portfolios view-model.
func NewPortfoliosView(api PortfoliosAPI, d Deps) *PortfoliosView {
	return &PortfoliosView{
		base: newBase(d, "portfolios"),
		api:  api,
		list: listview.New(func(p domain.Portfolio) string { return p.ID }, matchPortfolio, d.PageSize),
	}
}

func matchPortfolio(p domain.Portfolio, q listview.Query) bool {
	return listview.Contains(q.Text, p.UserName, p.UserEmail) &&
		listview.Matches(q.Filter("status"), p.Status)
}

// Page returns the portfolios page for p.
func (v *PortfoliosView) Page(ctx context.Context, p Params) (listview.Page[domain.Portfolio], error) {
	return page(ctx, &v.base, v.list, p, v.api.ListPortfolios)
}

// Refresh refetches every portfolio.
func (v *PortfoliosView) Refresh(ctx context.Context) error {
	return load(ctx, &v.base, v.list, v.api.ListPortfolios)
}

package service

import (
	"context"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/listview"
)

// WithdrawalsAPI is the slice of the Timedrop client the withdrawals screen
// calls.
type WithdrawalsAPI interface {
	ListWithdrawals(ctx context.Context) ([]domain.Withdrawal, error)
	GetWithdrawal(ctx context.Context, id string) (domain.Withdrawal, error)
	UpdateWithdrawalStatus(ctx context.Context, id string, status domain.WithdrawalStatus) error
}

// WithdrawalsView backs the withdrawals review screen.
type WithdrawalsView struct {
	base
	api  WithdrawalsAPI
	list *listview.List[domain.Withdrawal]
}

// NewWithdrawalsView creates the withdrawals view-model.
func NewWithdrawalsView(api WithdrawalsAPI, d Deps) *WithdrawalsView {
	return &WithdrawalsView{
		base: newBase(d, "withdrawals"),
		api:  api,
		list: listview.New(func(w domain.Withdrawal) string { return w.ID }, matchWithdrawal, d.PageSize),
	}
}

func matchWithdrawal(w domain.Withdrawal, q listview.Query) bool {
	return listview.Contains(q.Text, w.ID, w.DisplayUser(), w.UserEmail) &&
		listview.Matches(q.Filter("status"), string(w.Status))
}

// Page returns the withdrawals page for p.
func (v *WithdrawalsView) Page(ctx context.Context, p Params) (listview.Page[domain.Withdrawal], error) {
	return page(ctx, &v.base, v.list, p, v.api.ListWithdrawals)
}

// Refresh refetches every withdrawal.
func (v *WithdrawalsView) Refresh(ctx context.Context) error {
	return load(ctx, &v.base, v.list, v.api.ListWithdrawals)
}

// Detail fetches one withdrawal from the backend.
func (v *WithdrawalsView) Detail(ctx context.Context, id string) (domain.Withdrawal, error) {
	if id == "" {
		return domain.Withdrawal{}, invalid("withdrawal id is required")
	}
	w, err := v.api.GetWithdrawal(ctx, id)
	if err != nil {
		return domain.Withdrawal{}, v.fail(ctx, "withdrawal.detail", "Failed to load withdrawal", err)
	}
	return w, nil
}

// SetStatus updates a withdrawal's review status and patches the row
// without refetching.
func (v *WithdrawalsView) SetStatus(ctx context.Context, id string, status domain.WithdrawalStatus) error {
	if id == "" {
		return invalid("withdrawal id is required")
	}
	if !status.Valid() {
		return invalid("unknown withdrawal status %q", status)
	}

	err := v.api.UpdateWithdrawalStatus(ctx, id, status)
	v.record(ctx, "status", id, map[string]any{"status": string(status)}, err)
	if err != nil {
		return v.fail(ctx, "withdrawal.status", "Failed to update withdrawal", err)
	}

	v.list.Patch(id, func(w *domain.Withdrawal) { w.Status = status })
	v.Toasts.Success(ctx, "withdrawal."+string(status), "Withdrawal "+string(status), id)
	return nil
}

// Approve marks a withdrawal approved.
func (v *WithdrawalsView) Approve(ctx context.Context, id string) error {
	return v.SetStatus(ctx, id, domain.WithdrawalApproved)
}

// Reject marks a withdrawal rejected.
func (v *WithdrawalsView) Reject(ctx context.Context, id string) error {
	return v.SetStatus(ctx, id, domain.WithdrawalRejected)
}

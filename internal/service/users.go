package service

import (
	"context"
	"strings"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/listview"
)

// UsersAPI is the slice of the Timedrop client the users screen calls.
type UsersAPI interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, in domain.CreateUserInput) (domain.User, error)
	UpdateUser(ctx context.Context, id string, in domain.UpdateUserInput) (domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UsersView backs the users screen. Search covers name and email; the
// "status" filter uses domain.DisplayStatus and "role" the raw role.
type UsersView struct {
	base
	api  UsersAPI
	list *listview.List[domain.User]
}

// NewUsersView creates the users view-model.
func NewUsersView(api UsersAPI, d Deps) *UsersView {
	return &UsersView{
		base: newBase(d, "users"),
		api:  api,
		list: listview.New(func(u domain.User) string { return u.ID }, matchUser, d.PageSize),
	}
}

func matchUser(u domain.User, q listview.Query) bool {
	return listview.Contains(q.Text, u.FullName(), u.Email) &&
		listview.Matches(q.Filter("status"), domain.DisplayStatus(u)) &&
		listview.Matches(q.Filter("role"), string(u.Role))
}

// Page returns the users page for p.
func (v *UsersView) Page(ctx context.Context, p Params) (listview.Page[domain.User], error) {
	return page(ctx, &v.base, v.list, p, v.api.ListUsers)
}

// Refresh refetches the full user list.
func (v *UsersView) Refresh(ctx context.Context) error {
	return load(ctx, &v.base, v.list, v.api.ListUsers)
}

// Create adds a user and refetches, since the list shows server-assigned
// fields (verification, timestamps) the create response may omit.
func (v *UsersView) Create(ctx context.Context, in domain.CreateUserInput) (domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return domain.User{}, invalid("email and password are required")
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}

	u, err := v.api.CreateUser(ctx, in)
	v.record(ctx, "create", u.ID, map[string]any{"email": in.Email, "role": string(in.Role)}, err)
	if err != nil {
		return domain.User{}, v.fail(ctx, "user.create", "Failed to create user", err)
	}
	v.Toasts.Success(ctx, "user.created", "User created successfully", in.Email)

	// A failed refetch is toasted by load; the user was still created.
	_ = v.Refresh(ctx)
	return u, nil
}

// Update applies a partial update and patches the row.
func (v *UsersView) Update(ctx context.Context, id string, in domain.UpdateUserInput) (domain.User, error) {
	if id == "" {
		return domain.User{}, invalid("user id is required")
	}

	updated, err := v.api.UpdateUser(ctx, id, in)
	v.record(ctx, "update", id, updateDetail(in), err)
	if err != nil {
		return domain.User{}, v.fail(ctx, "user.update", "Failed to update user", err)
	}

	v.list.Patch(id, func(u *domain.User) {
		if updated.ID == id {
			*u = updated
			return
		}
		applyUserUpdate(u, in)
	})
	v.Toasts.Success(ctx, "user.updated", "User updated successfully", id)

	if updated.ID != id {
		if cur, ok := v.list.Get(id); ok {
			return cur, nil
		}
	}
	return updated, nil
}

// SetRole changes a user's role.
func (v *UsersView) SetRole(ctx context.Context, id string, role domain.Role) (domain.User, error) {
	switch role {
	case domain.RoleUser, domain.RoleAdmin, domain.RoleSuperAdmin, domain.RoleManager:
	default:
		return domain.User{}, invalid("unknown role %q", role)
	}
	return v.Update(ctx, id, domain.UpdateUserInput{Role: &role})
}

// Ban bans a user. The backend exposes banning as DELETE on the user; the
// row stays listed with its banned flag set.
func (v *UsersView) Ban(ctx context.Context, id string) error {
	if id == "" {
		return invalid("user id is required")
	}

	err := v.api.DeleteUser(ctx, id)
	v.record(ctx, "ban", id, nil, err)
	if err != nil {
		return v.fail(ctx, "user.ban", "Failed to ban user", err)
	}

	banned := true
	v.list.Patch(id, func(u *domain.User) { u.IsBanned = &banned })
	v.Toasts.Success(ctx, "user.banned", "User banned successfully", id)
	return nil
}

func applyUserUpdate(u *domain.User, in domain.UpdateUserInput) {
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Phone != nil {
		u.Phone = in.Phone
	}
	if in.Gender != nil {
		u.Gender = in.Gender
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
}

func updateDetail(in domain.UpdateUserInput) map[string]any {
	d := map[string]any{}
	if in.Email != nil {
		d["email"] = *in.Email
	}
	if in.FirstName != nil || in.LastName != nil {
		d["name"] = true
	}
	if in.Phone != nil {
		d["phone"] = true
	}
	if in.Gender != nil {
		d["gender"] = string(*in.Gender)
	}
	if in.Role != nil {
		d["role"] = string(*in.Role)
	}
	return d
}

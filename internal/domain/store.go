package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit    int
	Offset   int
	Since    *time.Time
	Until    *time.Time
	Resource string
}

// AuditEntry is a single audit log row describing an admin mutation.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource"`
	TargetID  string         `json:"targetId,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	Outcome   string         `json:"outcome"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Audit outcomes.
const (
	AuditOK     = "ok"
	AuditFailed = "failed"
)

// AuditStore persists an append-only log of admin mutations.
type AuditStore interface {
	Log(ctx context.Context, entry AuditEntry) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}

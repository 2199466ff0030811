package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timedrop/tdadmin/internal/domain"
)

// AuditStore implements domain.AuditStore using PostgreSQL.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates a new AuditStore backed by the given connection pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Log appends an audit entry. The detail map is stored as JSONB.
func (s *AuditStore) Log(ctx context.Context, e domain.AuditEntry) error {
	var detailJSON []byte
	if len(e.Detail) > 0 {
		var err error
		if detailJSON, err = json.Marshal(e.Detail); err != nil {
			return fmt.Errorf("postgres: marshal audit detail: %w", err)
		}
	}

	const query = `INSERT INTO audit_log (actor, action, resource, target_id, detail, outcome)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.pool.Exec(ctx, query, e.Actor, e.Action, e.Resource, e.TargetID, detailJSON, e.Outcome)
	if err != nil {
		return fmt.Errorf("postgres: log audit %s %s: %w", e.Resource, e.Action, err)
	}
	return nil
}

// List returns audit entries newest first with pagination and optional
// time and resource filtering.
func (s *AuditStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	query, args := auditListQuery(opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var detailJSON []byte

		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Resource, &e.TargetID, &detailJSON, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan audit entry: %w", err)
		}

		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal audit detail: %w", err)
			}
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list audit entries rows: %w", err)
	}
	return entries, nil
}

// Prune deletes archived entries: those created at or before until with an
// id no greater than maxID.
func (s *AuditStore) Prune(ctx context.Context, until time.Time, maxID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM audit_log WHERE created_at <= $1 AND id <= $2`, until, maxID)
	if err != nil {
		return 0, fmt.Errorf("postgres: prune audit before %s: %w", until.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func auditListQuery(opts domain.ListOpts) (string, []any) {
	query := `SELECT id, actor, action, resource, target_id, detail, outcome, created_at FROM audit_log WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if opts.Resource != "" {
		query += " AND resource = " + arg(opts.Resource)
	}
	if opts.Since != nil {
		query += " AND created_at >= " + arg(*opts.Since)
	}
	if opts.Until != nil {
		query += " AND created_at <= " + arg(*opts.Until)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT " + arg(opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET " + arg(opts.Offset)
	}
	return query, args
}

// Compile-time interface check.
var _ domain.AuditStore = (*AuditStore)(nil)

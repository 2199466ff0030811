package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/timedrop/tdadmin/internal/domain"
)

// AuditSource is the part of the audit store the archiver needs.
type AuditSource interface {
	List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error)
	Prune(ctx context.Context, until time.Time, maxID int64) (int64, error)
}

// AuditArchiver copies audit entries older than the retention window to
// blob storage as JSONL and optionally deletes them from the database
// once the upload succeeded. Without pruning, each run only picks up
// entries newer than the previous run's cutoff.
type AuditArchiver struct {
	source    AuditSource
	writer    domain.BlobWriter
	retention time.Duration
	prefix    string
	prune     bool
	now       func() time.Time
	logger    *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// NewAuditArchiver creates an AuditArchiver writing under prefix.
func NewAuditArchiver(source AuditSource, writer domain.BlobWriter, retention time.Duration, prefix string, prune bool, logger *slog.Logger) *AuditArchiver {
	return &AuditArchiver{
		source:    source,
		writer:    writer,
		retention: retention,
		prefix:    prefix,
		prune:     prune,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "audit_archiver")),
	}
}

// Run archives one batch and returns the number of entries written.
func (a *AuditArchiver) Run(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.now().UTC().Add(-a.retention)
	opts := domain.ListOpts{Until: &cutoff}
	if !a.prune && !a.last.IsZero() {
		// Until is inclusive; timestamptz resolution is one microsecond.
		since := a.last.Add(time.Microsecond)
		opts.Since = &since
	}

	entries, err := a.source.List(ctx, opts)
	if err != nil {
		return 0, fmt.Errorf("pipeline: archive audit: %w", err)
	}
	if len(entries) == 0 {
		a.logger.InfoContext(ctx, "nothing to archive", slog.Time("cutoff", cutoff))
		a.last = cutoff
		return 0, nil
	}

	// List is newest first; archives read oldest first.
	slices.Reverse(entries)
	var maxID int64
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return 0, fmt.Errorf("pipeline: archive audit: encode entry %d: %w", e.ID, err)
		}
		maxID = max(maxID, e.ID)
	}

	key := ArchiveKey(a.prefix, cutoff)
	if err := a.writer.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("pipeline: archive audit: upload %s: %w", key, err)
	}
	a.logger.InfoContext(ctx, "audit entries archived",
		slog.String("key", key),
		slog.Int("count", len(entries)),
		slog.Time("cutoff", cutoff),
	)
	a.last = cutoff

	if a.prune {
		deleted, err := a.source.Prune(ctx, cutoff, maxID)
		if err != nil {
			return len(entries), fmt.Errorf("pipeline: archive audit: prune: %w", err)
		}
		a.logger.InfoContext(ctx, "archived audit entries pruned", slog.Int64("deleted", deleted))
	}
	return len(entries), nil
}

// ArchiveKey is <prefix>/YYYY/MM/DDTHHMMSSZ.jsonl for the cutoff time.
func ArchiveKey(prefix string, cutoff time.Time) string {
	return prefix + "/" + cutoff.UTC().Format("2006/01/02T150405Z") + ".jsonl"
}

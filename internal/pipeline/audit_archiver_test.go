package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/timedrop/tdadmin/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	entries []domain.AuditEntry // newest first
	opts    []domain.ListOpts
	pruned  []int64
}

func (f *fakeSource) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	f.opts = append(f.opts, opts)
	var out []domain.AuditEntry
	for _, e := range f.entries {
		if opts.Until != nil && e.CreatedAt.After(*opts.Until) {
			continue
		}
		if opts.Since != nil && e.CreatedAt.Before(*opts.Since) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeSource) Prune(_ context.Context, _ time.Time, maxID int64) (int64, error) {
	f.pruned = append(f.pruned, maxID)
	return 2, nil
}

type fakeWriter struct {
	keys   []string
	bodies []string
	err    error
}

func (w *fakeWriter) Put(_ context.Context, key string, data io.Reader, _ string) error {
	if w.err != nil {
		return w.err
	}
	var b bytes.Buffer
	b.ReadFrom(data)
	w.keys = append(w.keys, key)
	w.bodies = append(w.bodies, b.String())
	return nil
}

var archiveNow = time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)

func seedSource() *fakeSource {
	day := 24 * time.Hour
	return &fakeSource{entries: []domain.AuditEntry{
		{ID: 3, Action: "status", CreatedAt: archiveNow.Add(-1 * day)},
		{ID: 2, Action: "resolve", CreatedAt: archiveNow.Add(-40 * day)},
		{ID: 1, Action: "create", CreatedAt: archiveNow.Add(-50 * day)},
	}}
}

func newTestArchiver(src AuditSource, w domain.BlobWriter, prune bool) *AuditArchiver {
	a := NewAuditArchiver(src, w, 30*24*time.Hour, "archive/audit", prune, discardLogger())
	a.now = func() time.Time { return archiveNow }
	return a
}

func TestAuditArchiverWritesOldestFirst(t *testing.T) {
	src, w := seedSource(), &fakeWriter{}
	a := newTestArchiver(src, w, true)

	n, err := a.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("archived %d, want 2", n)
	}
	if w.keys[0] != "archive/audit/2026/09/15T030000Z.jsonl" {
		t.Fatalf("key = %s", w.keys[0])
	}
	lines := strings.Split(strings.TrimSpace(w.bodies[0]), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"action":"create"`) || !strings.Contains(lines[1], `"action":"resolve"`) {
		t.Fatalf("body = %q", w.bodies[0])
	}
	if len(src.pruned) != 1 || src.pruned[0] != 2 {
		t.Fatalf("pruned = %v", src.pruned)
	}
}

func TestAuditArchiverUploadFailureSkipsPrune(t *testing.T) {
	src := seedSource()
	a := newTestArchiver(src, &fakeWriter{err: errors.New("bucket gone")}, true)

	if _, err := a.Run(context.Background()); err == nil {
		t.Fatal("expected upload error")
	}
	if len(src.pruned) != 0 {
		t.Fatalf("pruned after failed upload: %v", src.pruned)
	}
}

func TestAuditArchiverWithoutPruneAdvancesWindow(t *testing.T) {
	src, w := seedSource(), &fakeWriter{}
	a := newTestArchiver(src, w, false)

	if n, err := a.Run(context.Background()); err != nil || n != 2 {
		t.Fatalf("first run = %d, %v", n, err)
	}
	if n, err := a.Run(context.Background()); err != nil || n != 0 {
		t.Fatalf("second run = %d, %v", n, err)
	}
	if len(w.keys) != 1 {
		t.Fatalf("uploads = %d, want 1", len(w.keys))
	}
	if src.opts[1].Since == nil {
		t.Fatal("second run should list from the previous cutoff")
	}
	if len(src.pruned) != 0 {
		t.Fatal("prune disabled but entries were pruned")
	}
}

func TestAuditArchiverNothingToDo(t *testing.T) {
	w := &fakeWriter{}
	a := newTestArchiver(&fakeSource{}, w, true)
	if n, err := a.Run(context.Background()); err != nil || n != 0 {
		t.Fatalf("Run = %d, %v", n, err)
	}
	if len(w.keys) != 0 {
		t.Fatal("empty batch uploaded")
	}
}

package listview

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/timedrop/tdadmin/internal/domain"
)

type row struct {
	ID     string
	Name   string
	Status string
}

func rowID(r row) string { return r.ID }

func rowMatch(r row, q Query) bool {
	return Contains(q.Text, r.Name, r.ID) && Matches(q.Filter("status"), r.Status)
}

func rows(n int) []row {
	out := make([]row, n)
	for i := range out {
		status := "active"
		if i%3 == 0 {
			status = "banned"
		}
		out[i] = row{ID: fmt.Sprintf("r%d", i), Name: fmt.Sprintf("Name %d", i), Status: status}
	}
	return out
}

func TestFilterIsPureAndOrderIndependent(t *testing.T) {
	items := rows(12)
	orig := append([]row(nil), items...)

	q := Query{Text: "name 1", Filters: map[string]string{"status": "active"}}
	match := func(r row) bool { return rowMatch(r, q) }

	a := Filter(items, match)
	b := Filter(items, match)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("filter is not deterministic")
	}
	if !reflect.DeepEqual(items, orig) {
		t.Fatal("filter mutated its input")
	}

	// Applying text and status filters in either order gives the same set.
	byText := func(r row) bool { return Contains(q.Text, r.Name, r.ID) }
	byStatus := func(r row) bool { return Matches(q.Filter("status"), r.Status) }
	ts := Filter(Filter(items, byText), byStatus)
	st := Filter(Filter(items, byStatus), byText)
	if !reflect.DeepEqual(ts, st) || !reflect.DeepEqual(ts, a) {
		t.Fatalf("order dependent: %v vs %v vs %v", ts, st, a)
	}
}

func TestContainsAndMatches(t *testing.T) {
	tests := []struct {
		query  string
		fields []string
		want   bool
	}{
		{"", []string{"x"}, true},
		{"  ", nil, true},
		{"ADA", []string{"bob", "ada@example.com"}, true},
		{"zed", []string{"bob", "ada"}, false},
	}
	for _, tt := range tests {
		if got := Contains(tt.query, tt.fields...); got != tt.want {
			t.Errorf("Contains(%q, %v) = %v", tt.query, tt.fields, got)
		}
	}

	if !Matches("", "x") || !Matches(FilterAll, "x") || !Matches("Open", "open") || Matches("closed", "Open") {
		t.Fatal("Matches mismatch")
	}
}

func TestPaginationReproducesFilteredSet(t *testing.T) {
	items := rows(7)
	for size := 1; size <= len(items)+1; size++ {
		var got []row
		for p := 1; p <= TotalPages(len(items), size); p++ {
			page, clamped := Paginate(items, p, size)
			if clamped != p {
				t.Fatalf("size %d: page %d clamped to %d", size, p, clamped)
			}
			got = append(got, page...)
		}
		if !reflect.DeepEqual(got, items) {
			t.Fatalf("size %d: concatenation = %v", size, got)
		}
	}
}

func TestPaginateClamps(t *testing.T) {
	items := rows(5)
	if _, p := Paginate(items, 0, 2); p != 1 {
		t.Fatalf("page 0 -> %d", p)
	}
	if got, p := Paginate(items, 9, 2); p != 3 || len(got) != 1 {
		t.Fatalf("page 9 -> %d (%d items)", p, len(got))
	}
	if got, p := Paginate([]row{}, 4, 2); p != 1 || len(got) != 0 {
		t.Fatalf("empty -> page %d, %d items", p, len(got))
	}
	if TotalPages(0, 10) != 1 || TotalPages(10, 10) != 1 || TotalPages(11, 10) != 2 || TotalPages(3, 0) != 1 {
		t.Fatal("TotalPages mismatch")
	}
}

func TestListPageResets(t *testing.T) {
	l := New(rowID, rowMatch, 2)
	l.Replace(rows(10))

	l.SetPage(3)
	if got := l.Snapshot().Page; got != 3 {
		t.Fatalf("page = %d", got)
	}
	l.SetQuery(Query{Text: "name"})
	if got := l.Snapshot().Page; got != 1 {
		t.Fatalf("query change kept page %d", got)
	}

	l.SetPage(2)
	l.SetQuery(Query{Text: "name", Filters: map[string]string{"status": FilterAll}})
	if got := l.Snapshot().Page; got != 2 {
		t.Fatalf("equivalent query reset page to %d", got)
	}

	l.SetPageSize(5)
	if got := l.Snapshot().Page; got != 1 {
		t.Fatalf("page size change kept page %d", got)
	}

	l.SetPage(2)
	l.Replace(rows(4))
	if got := l.Snapshot().Page; got != 1 {
		t.Fatalf("replace kept page %d", got)
	}
}

func TestGenerationGuard(t *testing.T) {
	l := New(rowID, rowMatch, 10)

	old := l.Begin()
	current := l.Begin()

	if err := l.Commit(current, rows(2)); err != nil {
		t.Fatal(err)
	}
	if err := l.Commit(old, rows(9)); !errors.Is(err, domain.ErrStaleResponse) {
		t.Fatalf("stale commit err = %v", err)
	}
	if err := l.Fail(old, errors.New("late")); !errors.Is(err, domain.ErrStaleResponse) {
		t.Fatalf("stale fail err = %v", err)
	}

	snap := l.Snapshot()
	if snap.TotalItems != 2 || snap.Loading || snap.Err != "" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestFailKeepsItems(t *testing.T) {
	l := New(rowID, rowMatch, 10)
	if err := l.Commit(l.Begin(), rows(3)); err != nil {
		t.Fatal(err)
	}

	tk := l.Begin()
	if !l.Snapshot().Loading {
		t.Fatal("expected loading")
	}
	if err := l.Fail(tk, errors.New("HTTP 500: boom")); err != nil {
		t.Fatal(err)
	}
	snap := l.Snapshot()
	if snap.TotalItems != 3 || snap.Err != "HTTP 500: boom" || snap.Loading {
		t.Fatalf("snapshot = %+v", snap)
	}

	if err := l.Commit(l.Begin(), rows(1)); err != nil {
		t.Fatal(err)
	}
	if snap := l.Snapshot(); snap.Err != "" {
		t.Fatalf("error survived a successful fetch: %q", snap.Err)
	}
}

func TestPatchAndRemove(t *testing.T) {
	l := New(rowID, rowMatch, 10)
	l.Replace(rows(3))

	if !l.Patch("r1", func(r *row) { r.Status = "banned" }) {
		t.Fatal("patch missed r1")
	}
	if got, _ := l.Get("r1"); got.Status != "banned" {
		t.Fatalf("r1 = %+v", got)
	}
	if l.Patch("nope", func(r *row) { t.Fatal("called for unknown id") }) {
		t.Fatal("patch of unknown id reported true")
	}

	if !l.Remove("r0") || l.Remove("r0") {
		t.Fatal("remove mismatch")
	}
	if got := len(l.Items()); got != 2 {
		t.Fatalf("items = %d", got)
	}
}

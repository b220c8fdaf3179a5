package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/axdom/dbopen"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(dbopen.OpenMemory(t, dbopen.WithSchema(Schema)))
}

func TestSaveAndGetSnapshot(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	snap, err := s.SaveSnapshot(ctx, "https://example.com/login",
		`<html><body><h1>Sign in</h1><p>Welcome back.</p></body></html>`)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if snap.ID == "" {
		t.Fatal("empty snapshot id")
	}
	if !strings.Contains(snap.Markdown, "Sign in") {
		t.Errorf("markdown rendition missing heading: %q", snap.Markdown)
	}

	got, err := s.GetSnapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.URL != snap.URL || !strings.Contains(got.HTML, "<h1>Sign in</h1>") {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
}

func TestGetSnapshot_Missing(t *testing.T) {
	s := testStore(t)
	_, err := s.GetSnapshot(context.Background(), "snap_nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListSnapshots_NewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, _ := s.SaveSnapshot(ctx, "https://a.test", "<p>a</p>")
	second, _ := s.SaveSnapshot(ctx, "https://b.test", "<p>b</p>")

	list, err := s.ListSnapshots(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d snapshots", len(list))
	}
	// Same-second captures tiebreak on the time-sortable id.
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("order: got [%s %s]", list[0].ID, list[1].ID)
	}
	if list[0].HTML != "" {
		t.Error("listing should not carry HTML bodies")
	}
}

func TestQueryLog(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	snap, _ := s.SaveSnapshot(ctx, "https://c.test", "<button>Go</button>")
	if err := s.LogQuery(ctx, snap.ID, `role={"role":"button"}`, 1, 420*time.Microsecond); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := s.LogQuery(ctx, "", `role={"role":"link"}`, 0, 100*time.Microsecond); err != nil {
		t.Fatalf("log ad-hoc: %v", err)
	}

	recs, err := s.RecentQueries(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	for _, rec := range recs {
		switch rec.Selector {
		case `role={"role":"button"}`:
			if rec.SnapshotID != snap.ID || rec.MatchCount != 1 || rec.Duration != 420*time.Microsecond {
				t.Errorf("button record: %+v", rec)
			}
		case `role={"role":"link"}`:
			if rec.SnapshotID != "" || rec.MatchCount != 0 {
				t.Errorf("ad-hoc record: %+v", rec)
			}
		default:
			t.Errorf("unexpected selector %q", rec.Selector)
		}
	}
}

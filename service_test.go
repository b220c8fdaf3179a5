package axdom

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

const loginPage = `<html><body>
<header><h1>Sign in</h1></header>
<form>
  <label for="u">Username</label><input id="u" type="text">
  <label for="p">Password</label><input id="p" type="password">
  <button type="submit">Sign in</button>
</form>
<x-consent>
  <template shadowrootmode="open">
    <button>Accept cookies</button>
  </template>
</x-consent>
<div hidden><button>Invisible</button></div>
</body></html>`

func testService(t *testing.T, cfg Config) *Service {
	t.Helper()
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestQueryHTML_FirstMatch(t *testing.T) {
	svc := testService(t, Config{})

	res, err := svc.QueryHTML(context.Background(), loginPage, `role={"role":"button","name":"sign in"}`, false)
	if err != nil {
		t.Fatalf("QueryHTML: %v", err)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(res.Matches))
	}
	m := res.Matches[0]
	if m.Role != "button" || m.Name != "Sign in" || m.Tag != "button" {
		t.Fatalf("match = %+v", m)
	}
	if !strings.Contains(m.Path, "form > button") {
		t.Fatalf("Path = %q", m.Path)
	}
}

func TestQueryHTML_AllIncludesShadowExcludesHidden(t *testing.T) {
	svc := testService(t, Config{})

	res, err := svc.QueryHTML(context.Background(), loginPage, `role={"role":"button"}`, true)
	if err != nil {
		t.Fatalf("QueryHTML: %v", err)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("got %d buttons, want 2 (shadow included, hidden excluded): %+v", len(res.Matches), res.Matches)
	}
	shadow := res.Matches[1]
	if shadow.Name != "Accept cookies" {
		t.Fatalf("second match = %+v", shadow)
	}
	if !strings.Contains(shadow.Path, "::shadow") {
		t.Fatalf("shadow path missing boundary marker: %q", shadow.Path)
	}
}

func TestQueryHTML_NoMatchIsEmptyNotError(t *testing.T) {
	svc := testService(t, Config{})

	res, err := svc.QueryHTML(context.Background(), loginPage, `role={"role":"checkbox"}`, false)
	if err != nil {
		t.Fatalf("QueryHTML: %v", err)
	}
	if len(res.Matches) != 0 {
		t.Fatalf("got %d matches, want 0", len(res.Matches))
	}
}

func TestQueryHTML_BadSelector(t *testing.T) {
	svc := testService(t, Config{})

	if _, err := svc.QueryHTML(context.Background(), loginPage, `role={broken`, false); err == nil {
		t.Fatal("expected selector parse error")
	}
}

func TestQueryHTML_MaxMatchesCap(t *testing.T) {
	svc := testService(t, Config{MaxMatches: 2})

	var b strings.Builder
	b.WriteString("<html><body>")
	for range 5 {
		b.WriteString("<button>Go</button>")
	}
	b.WriteString("</body></html>")

	res, err := svc.QueryHTML(context.Background(), b.String(), `role={"role":"button"}`, true)
	if err != nil {
		t.Fatalf("QueryHTML: %v", err)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("got %d matches, want cap of 2", len(res.Matches))
	}
}

func TestQueryHTML_TextTruncatesOnRuneBoundary(t *testing.T) {
	svc := testService(t, Config{})

	// 100 two-byte runes: 200 bytes of text plus one more rune pushes
	// past the cap, so the cut must land between runes.
	long := strings.Repeat("é", 101)
	src := `<html><body><button>` + long + `</button></body></html>`

	res, err := svc.QueryHTML(context.Background(), src, `role={"role":"button"}`, false)
	if err != nil {
		t.Fatalf("QueryHTML: %v", err)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("got %d matches", len(res.Matches))
	}
	text := res.Matches[0].Text
	if len(text) > 200 {
		t.Fatalf("text length = %d, want <= 200", len(text))
	}
	if !utf8.ValidString(text) {
		t.Fatalf("truncated text is not valid UTF-8: %q", text)
	}
}

func TestQueryStored_Roundtrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "axdom.db")
	svc := testService(t, Config{DBPath: dbPath})
	ctx := context.Background()

	rec, err := svc.store.SaveSnapshot(ctx, "https://example.test/login", loginPage)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	res, err := svc.QueryStored(ctx, rec.ID, `role={"role":"heading","name":"Sign in","exact":true}`, false)
	if err != nil {
		t.Fatalf("QueryStored: %v", err)
	}
	if len(res.Matches) != 1 || res.Matches[0].Tag != "h1" {
		t.Fatalf("matches = %+v", res.Matches)
	}
	if res.URL != "https://example.test/login" {
		t.Fatalf("URL = %q", res.URL)
	}
	if res.SnapshotID != rec.ID {
		t.Fatalf("SnapshotID = %q, want %q", res.SnapshotID, rec.ID)
	}

	// queries against the archive land in the query log
	queries, err := svc.store.RecentQueries(ctx, 10)
	if err != nil {
		t.Fatalf("RecentQueries: %v", err)
	}
	if len(queries) != 1 || queries[0].MatchCount != 1 {
		t.Fatalf("query log = %+v", queries)
	}
}

func TestQueryStored_NoArchive(t *testing.T) {
	svc := testService(t, Config{})
	if _, err := svc.QueryStored(context.Background(), "missing", `role={"role":"button"}`, false); err == nil {
		t.Fatal("expected error without archive")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "axdom.yaml")
	src := `db_path: /tmp/ax.db
http_addr: ":8470"
browser:
  remote: ws://chrome:9222
  resource_blocking: [images, fonts]
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBPath != "/tmp/ax.db" || cfg.HTTPAddr != ":8470" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Browser.Remote != "ws://chrome:9222" || len(cfg.Browser.ResourceBlocking) != 2 {
		t.Fatalf("browser cfg = %+v", cfg.Browser)
	}
	if cfg.MaxMatches != 200 {
		t.Fatalf("MaxMatches default = %d", cfg.MaxMatches)
	}
}

package webapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/axdom"
)

const samplePage = `<html><body>
<nav><a href="/pricing">Pricing</a></nav>
<main><button>Start free trial</button></main>
</body></html>`

func testAPI(t *testing.T, withDB bool) (*API, *axdom.Service) {
	t.Helper()
	cfg := axdom.Config{}
	if withDB {
		cfg.DBPath = filepath.Join(t.TempDir(), "axdom.db")
	}
	svc, err := axdom.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return New(svc, nil), svc
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	api, _ := testAPI(t, false)
	rec := doJSON(t, api.Router(), "GET", "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestQuery_InlineHTML(t *testing.T) {
	api, _ := testAPI(t, false)

	body := `{"html":` + jsonString(samplePage) + `,"selector":"role={\"role\":\"button\"}"}`
	rec := doJSON(t, api.Router(), "POST", "/api/query", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var res axdom.QueryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(res.Matches) != 1 || res.Matches[0].Name != "Start free trial" {
		t.Fatalf("matches = %+v", res.Matches)
	}
}

func TestQuery_MissingSelector(t *testing.T) {
	api, _ := testAPI(t, false)
	rec := doJSON(t, api.Router(), "POST", "/api/query", `{"html":"<p>x</p>"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestQuery_NoSource(t *testing.T) {
	api, _ := testAPI(t, false)
	rec := doJSON(t, api.Router(), "POST", "/api/query", `{"selector":"css=a"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSnapshots_EmptyListIsArray(t *testing.T) {
	api, _ := testAPI(t, true)
	rec := doJSON(t, api.Router(), "GET", "/api/snapshots", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %q, want empty JSON array", got)
	}
}

func TestSnapshot_NotFound(t *testing.T) {
	api, _ := testAPI(t, true)
	rec := doJSON(t, api.Router(), "GET", "/api/snapshots/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSnapshotHTML_Sanitized(t *testing.T) {
	api, svc := testAPI(t, true)

	dirty := `<html><body><p>Hello</p><script>alert(1)</script></body></html>`
	id, err := svc.Archive(context.Background(), "https://example.test", dirty)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	resp := doJSON(t, api.Router(), "GET", "/api/snapshots/"+id+"/html", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "Hello") {
		t.Fatalf("content stripped: %q", body)
	}
	if strings.Contains(body, "<script") || strings.Contains(body, "alert(1)") {
		t.Fatalf("script survived sanitization: %q", body)
	}
}

func TestArchiveThenQueryStored(t *testing.T) {
	api, _ := testAPI(t, true)
	router := api.Router()

	body := `{"url":"https://example.test","html":` + jsonString(samplePage) + `}`
	rec := doJSON(t, router, "POST", "/api/snapshots", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("archive status = %d, body %s", rec.Code, rec.Body)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("archive response: %s", rec.Body)
	}

	q := `{"snapshot_id":"` + created.ID + `","selector":"role={\"role\":\"link\"}","all":true}`
	rec = doJSON(t, router, "POST", "/api/query", q)
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d, body %s", rec.Code, rec.Body)
	}
	var res axdom.QueryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(res.Matches) != 1 || res.Matches[0].Name != "Pricing" {
		t.Fatalf("matches = %+v", res.Matches)
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

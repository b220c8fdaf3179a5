// Package webapi exposes the query service over HTTP: query endpoints
// plus read access to the snapshot archive. Archived page HTML is
// sanitized before serving, since it is captured from arbitrary sites
// and must not execute in a viewer's browser.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/axdom"
	"github.com/hazyhaar/axdom/internal/store"
	"github.com/hazyhaar/axdom/kit"
)

// API serves the HTTP surface of an axdom service.
type API struct {
	svc      *axdom.Service
	logger   *slog.Logger
	sanitize *bluemonday.Policy
}

// New builds the API around svc.
func New(svc *axdom.Service, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		svc:      svc,
		logger:   logger,
		sanitize: bluemonday.UGCPolicy(),
	}
}

// Router builds the chi router with the standard middleware stack.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.handleHealth)
	r.Post("/api/query", a.handleQuery)
	r.Get("/api/snapshots", a.handleSnapshots)
	r.Post("/api/snapshots", a.handleArchive)
	r.Get("/api/snapshots/{id}", a.handleSnapshot)
	r.Get("/api/snapshots/{id}/html", a.handleSnapshotHTML)
	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type queryRequest struct {
	HTML       string `json:"html,omitempty"`
	URL        string `json:"url,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Selector   string `json:"selector"`
	All        bool   `json:"all,omitempty"`
}

func (a *API) handleQuery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Selector == "" {
		jsonErr(w, "selector is required", http.StatusBadRequest)
		return
	}

	ctx := kit.WithTransport(r.Context(), "http")
	if id := middleware.GetReqID(ctx); id != "" {
		ctx = kit.WithRequestID(ctx, id)
	}

	var res *axdom.QueryResult
	var err error
	switch {
	case req.URL != "":
		res, err = a.svc.QueryURL(ctx, req.URL, req.Selector, req.All)
	case req.SnapshotID != "":
		res, err = a.svc.QueryStored(ctx, req.SnapshotID, req.Selector, req.All)
	case req.HTML != "":
		res, err = a.svc.QueryHTML(ctx, req.HTML, req.Selector, req.All)
	default:
		jsonErr(w, "one of html, url or snapshot_id is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		a.writeErr(w, ctx, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (a *API) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	snaps, err := a.svc.Snapshots(r.Context(), limit)
	if err != nil {
		a.writeErr(w, r.Context(), err)
		return
	}
	if snaps == nil {
		snaps = []store.Snapshot{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snaps)
}

func (a *API) handleArchive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	var req struct {
		URL  string `json:"url"`
		HTML string `json:"html"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.HTML == "" {
		jsonErr(w, "html is required", http.StatusBadRequest)
		return
	}

	id, err := a.svc.Archive(r.Context(), req.URL, req.HTML)
	if err != nil {
		a.writeErr(w, r.Context(), err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (a *API) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := a.svc.SnapshotByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeErr(w, r.Context(), err)
		return
	}

	// the raw capture is served separately; this endpoint returns
	// metadata and the markdown rendition
	snap.HTML = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (a *API) handleSnapshotHTML(w http.ResponseWriter, r *http.Request) {
	snap, err := a.svc.SnapshotByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeErr(w, r.Context(), err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(a.sanitize.Sanitize(snap.HTML)))
}

func (a *API) writeErr(w http.ResponseWriter, ctx context.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonErr(w, "snapshot not found", http.StatusNotFound)
		return
	}
	a.logger.Error("webapi: request failed",
		"error", err,
		"request_id", kit.RequestID(ctx))
	jsonErr(w, err.Error(), http.StatusInternalServerError)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

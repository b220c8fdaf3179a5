package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a snapshot id has no row.
var ErrNotFound = errors.New("store: snapshot not found")

// Snapshot is one captured page.
type Snapshot struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	HTML       string    `json:"html,omitempty"`
	Markdown   string    `json:"markdown,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// QueryRecord is one logged query execution.
type QueryRecord struct {
	ID         string    `json:"id"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	Selector   string    `json:"selector"`
	MatchCount int       `json:"match_count"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time `json:"created_at"`
}

// SaveSnapshot stores a captured page and returns the stored record.
// The markdown rendition is best-effort and never blocks the save.
func (s *Store) SaveSnapshot(ctx context.Context, pageURL, html string) (Snapshot, error) {
	snap := Snapshot{
		ID:         s.newID(),
		URL:        pageURL,
		HTML:       html,
		Markdown:   s.markdown(html, pageURL),
		CapturedAt: time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, url, html, markdown, captured_at) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.URL, snap.HTML, snap.Markdown, snap.CapturedAt.Unix())
	if err != nil {
		return Snapshot{}, fmt.Errorf("store: save snapshot: %w", err)
	}
	return snap, nil
}

// GetSnapshot loads one snapshot by id, including its HTML.
func (s *Store) GetSnapshot(ctx context.Context, id string) (Snapshot, error) {
	var snap Snapshot
	var captured int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, url, html, markdown, captured_at FROM snapshots WHERE id = ?`, id).
		Scan(&snap.ID, &snap.URL, &snap.HTML, &snap.Markdown, &captured)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("store: get snapshot: %w", err)
	}
	snap.CapturedAt = time.Unix(captured, 0)
	return snap, nil
}

// ListSnapshots returns snapshot metadata (no HTML body), newest first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, captured_at FROM snapshots ORDER BY captured_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var captured int64
		if err := rows.Scan(&snap.ID, &snap.URL, &captured); err != nil {
			return nil, fmt.Errorf("store: scan snapshot: %w", err)
		}
		snap.CapturedAt = time.Unix(captured, 0)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// LogQuery records one query execution. snapshotID may be empty for
// queries against ad-hoc HTML.
func (s *Store) LogQuery(ctx context.Context, snapshotID, selector string, matchCount int, took time.Duration) error {
	var sid any
	if snapshotID != "" {
		sid = snapshotID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_log (id, snapshot_id, selector, match_count, duration_us, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.newID(), sid, selector, matchCount, took.Microseconds(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store: log query: %w", err)
	}
	return nil
}

// RecentQueries returns the query log, newest first.
func (s *Store) RecentQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(snapshot_id, ''), selector, match_count, duration_us, created_at
		 FROM query_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent queries: %w", err)
	}
	defer rows.Close()

	var out []QueryRecord
	for rows.Next() {
		var rec QueryRecord
		var us, created int64
		if err := rows.Scan(&rec.ID, &rec.SnapshotID, &rec.Selector, &rec.MatchCount, &us, &created); err != nil {
			return nil, fmt.Errorf("store: scan query record: %w", err)
		}
		rec.Duration = time.Duration(us) * time.Microsecond
		rec.CreatedAt = time.Unix(created, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

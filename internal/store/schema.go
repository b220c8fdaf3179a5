package store

// Schema contains the DDL for the snapshot archive.
const Schema = `
-- Captured page snapshots, immutable once written.
CREATE TABLE IF NOT EXISTS snapshots (
    id          TEXT PRIMARY KEY,
    url         TEXT NOT NULL,
    html        TEXT NOT NULL,
    markdown    TEXT NOT NULL DEFAULT '',
    captured_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_url ON snapshots(url);
CREATE INDEX IF NOT EXISTS idx_snapshots_captured ON snapshots(captured_at DESC);

-- One row per executed query, for replay and selector debugging.
CREATE TABLE IF NOT EXISTS query_log (
    id          TEXT PRIMARY KEY,
    snapshot_id TEXT,
    selector    TEXT NOT NULL,
    match_count INTEGER NOT NULL,
    duration_us INTEGER NOT NULL,
    created_at  INTEGER NOT NULL,
    FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_query_log_snapshot ON query_log(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_query_log_created ON query_log(created_at DESC);
`

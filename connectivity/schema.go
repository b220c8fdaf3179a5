package connectivity

// Schema is the DDL for the routes table. Apply it to whichever SQLite
// database the deployment uses for routing decisions.
//
// strategy: "local", "noop", or a registered transport ("http").
const Schema = `
CREATE TABLE IF NOT EXISTS routes (
    service_name TEXT PRIMARY KEY,
    strategy     TEXT NOT NULL DEFAULT 'local',
    endpoint     TEXT,
    config       TEXT,
    updated_at   INTEGER NOT NULL DEFAULT (unixepoch())
);
`

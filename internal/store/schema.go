package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
    id                   TEXT PRIMARY KEY,
    username             TEXT NOT NULL,
    fetched_at           TEXT NOT NULL,
    attended             INTEGER NOT NULL DEFAULT 0,
    total                INTEGER NOT NULL DEFAULT 0,
    percentage           REAL NOT NULL DEFAULT 0,
    reported_percentage  REAL,
    payload              TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_user_time ON snapshots(username, fetched_at);
`

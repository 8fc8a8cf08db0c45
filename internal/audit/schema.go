// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema is the SQLite schema for the invocation log.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- One row per dispatched command line
CREATE TABLE IF NOT EXISTS invocations (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,      -- invocation UUID
    sender TEXT NOT NULL,
    label TEXT NOT NULL,          -- label as typed, alias included
    args TEXT NOT NULL,           -- JSON array
    handled INTEGER NOT NULL,     -- 0 or 1
    error TEXT NOT NULL DEFAULT '',
    elapsed_us INTEGER NOT NULL,
    created_at INTEGER NOT NULL   -- Unix nanoseconds
);

CREATE INDEX IF NOT EXISTS idx_invocations_sender ON invocations(sender);
CREATE INDEX IF NOT EXISTS idx_invocations_label ON invocations(label);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`

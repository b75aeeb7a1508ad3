package store

// Dates are stored as YYYY-MM-DD text and amounts as exact decimal strings,
// which keeps the schema portable between SQLite and PostgreSQL.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS transactions (
    entity       TEXT NOT NULL,
    reference    TEXT NOT NULL,
    date         TEXT NOT NULL,
    description  TEXT NOT NULL,
    amount       TEXT NOT NULL,
    category     TEXT NOT NULL DEFAULT '',
    imported_at  TEXT NOT NULL,
    PRIMARY KEY (entity, reference)
);

CREATE INDEX IF NOT EXISTS idx_transactions_entity_date ON transactions(entity, date);
`

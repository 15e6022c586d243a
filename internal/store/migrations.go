package store

import "fmt"

// schemaDDL creates the competitor directory and the ads table. Structured
// rate fields are stored as the harvested percent strings; parsing happens
// at analysis time so re-analysis never needs a re-harvest.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS competitors (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE COLLATE NOCASE
);

CREATE TABLE IF NOT EXISTS ads (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	competitor_id     INTEGER NOT NULL REFERENCES competitors(id),
	media_type        TEXT NOT NULL DEFAULT 'image',
	product           TEXT NOT NULL DEFAULT '',
	tags              TEXT NOT NULL DEFAULT '',
	transcription     TEXT NOT NULL DEFAULT '',
	image_description TEXT NOT NULL DEFAULT '',
	rate_credit       TEXT NOT NULL DEFAULT '',
	rate_debit        TEXT NOT NULL DEFAULT '',
	rate_pix          TEXT NOT NULL DEFAULT '',
	source_url        TEXT NOT NULL DEFAULT '',
	published_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ads_competitor ON ads(competitor_id);
CREATE INDEX IF NOT EXISTS idx_ads_published ON ads(published_at);
CREATE INDEX IF NOT EXISTS idx_ads_media_type ON ads(media_type);
`

// migrate creates all tables if they don't exist.
func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

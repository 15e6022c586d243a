// Package store provides the SQLite storage layer for adscope.
//
// It is the reference implementation of the record-store collaborator: the
// analysis engine only depends on the Store interface and its paginated
// query contract (a page shorter than the requested limit means the result
// set is exhausted). All harvested ads and the competitor directory live in
// a single SQLite database file.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/veredas/adscope/internal/query"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.adscope/adscope.db"

// DefaultPageSize is the fixed page size for QueryAds pagination.
const DefaultPageSize = 1000

// Competitor is an entry in the competitor directory.
type Competitor struct {
	ID   int64
	Name string
}

// RateAnalysis is the structured fee sub-record attached to an ad by the
// harvesting pipeline. Fields are percent-formatted strings as harvested
// (e.g. "2,49%"); empty means the field was not extracted.
type RateAnalysis struct {
	Credit string `json:"credit"`
	Debit  string `json:"debit"`
	Pix    string `json:"pix"`
}

// Empty reports whether the sub-record carries no usable field.
func (r *RateAnalysis) Empty() bool {
	return r == nil || (r.Credit == "" && r.Debit == "" && r.Pix == "")
}

// Ad is a single harvested competitor advertisement.
type Ad struct {
	ID               int64
	CompetitorID     int64
	CompetitorName   string
	MediaType        string // "image" or "video"
	Product          string
	Tags             string // raw delimiter-separated tag string
	Transcription    string
	ImageDescription string
	Rates            *RateAnalysis
	SourceURL        string
	PublishedAt      time.Time
}

// StoreStats holds observability counts about the store.
type StoreStats struct {
	AdCount         int64
	CompetitorCount int64
	DBSizeBytes     int64
}

// StoreConfig holds configuration for NewStore.
type StoreConfig struct {
	DBPath   string
	PageSize int
}

// Store defines the record-store collaborator contract.
type Store interface {
	// Ads
	AddAd(ctx context.Context, ad *Ad) (int64, error)
	GetAd(ctx context.Context, id int64) (*Ad, error)
	// QueryAds returns one page of ads matching the predicate, ordered by
	// publication time then id so repeated queries are byte-identical.
	QueryAds(ctx context.Context, p query.Predicate, limit, offset int) ([]*Ad, error)

	// Competitor directory
	ListCompetitors(ctx context.Context) ([]*Competitor, error)
	EnsureCompetitor(ctx context.Context, name string) (int64, error)

	// Observability
	Stats(ctx context.Context) (*StoreStats, error)

	PageSize() int
	Close() error
}

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	pageSize int
}

// NewStore creates a new SQLite-backed Store.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(cfg StoreConfig) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{
		db:       db,
		dbPath:   cfg.DBPath,
		pageSize: cfg.PageSize,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// GetDB exposes the underlying handle for resource queries.
func (s *SQLiteStore) GetDB() *sql.DB {
	return s.db
}

// PageSize returns the fixed pagination page size.
func (s *SQLiteStore) PageSize() int {
	return s.pageSize
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Stats returns row counts and the on-disk size.
func (s *SQLiteStore) Stats(ctx context.Context) (*StoreStats, error) {
	st := &StoreStats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ads").Scan(&st.AdCount); err != nil {
		return nil, fmt.Errorf("counting ads: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM competitors").Scan(&st.CompetitorCount); err != nil {
		return nil, fmt.Errorf("counting competitors: %w", err)
	}

	if s.dbPath != ":memory:" {
		if info, err := os.Stat(s.dbPath); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}

	return st, nil
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

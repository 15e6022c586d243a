package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/veredas/adscope/internal/query"
)

// AddAd inserts a harvested ad. The competitor must already exist in the
// directory (use EnsureCompetitor).
func (s *SQLiteStore) AddAd(ctx context.Context, ad *Ad) (int64, error) {
	if ad.CompetitorID == 0 {
		return 0, fmt.Errorf("ad has no competitor id")
	}
	if ad.MediaType == "" {
		ad.MediaType = query.MediaImage
	}
	if ad.PublishedAt.IsZero() {
		ad.PublishedAt = time.Now().UTC()
	}

	var credit, debit, pix string
	if ad.Rates != nil {
		credit, debit, pix = ad.Rates.Credit, ad.Rates.Debit, ad.Rates.Pix
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO ads (competitor_id, media_type, product, tags, transcription, image_description,
		                  rate_credit, rate_debit, rate_pix, source_url, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ad.CompetitorID, ad.MediaType, ad.Product, ad.Tags, ad.Transcription, ad.ImageDescription,
		credit, debit, pix, ad.SourceURL, ad.PublishedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting ad: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}
	ad.ID = id
	return id, nil
}

// GetAd retrieves an ad by id, with the competitor name resolved.
// Returns nil (no error) when the id does not exist.
func (s *SQLiteStore) GetAd(ctx context.Context, id int64) (*Ad, error) {
	row := s.db.QueryRowContext(ctx, adSelect+" WHERE a.id = ?", id)
	ad, err := scanAd(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting ad %d: %w", id, err)
	}
	return ad, nil
}

const adSelect = `
	SELECT a.id, a.competitor_id, c.name, a.media_type, a.product, a.tags,
	       a.transcription, a.image_description,
	       a.rate_credit, a.rate_debit, a.rate_pix,
	       a.source_url, a.published_at
	FROM ads a JOIN competitors c ON c.id = a.competitor_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAd(r rowScanner) (*Ad, error) {
	ad := &Ad{}
	var credit, debit, pix string
	if err := r.Scan(&ad.ID, &ad.CompetitorID, &ad.CompetitorName, &ad.MediaType, &ad.Product,
		&ad.Tags, &ad.Transcription, &ad.ImageDescription,
		&credit, &debit, &pix, &ad.SourceURL, &ad.PublishedAt); err != nil {
		return nil, err
	}
	if credit != "" || debit != "" || pix != "" {
		ad.Rates = &RateAnalysis{Credit: credit, Debit: debit, Pix: pix}
	}
	return ad, nil
}

// QueryAds returns one page of ads matching the predicate. Results are
// ordered by published_at then id; a page shorter than limit signals the
// end of the result set. The minimum-quality gate (at least one non-empty
// content field) is always applied.
func (s *SQLiteStore) QueryAds(ctx context.Context, p query.Predicate, limit, offset int) ([]*Ad, error) {
	if limit <= 0 {
		limit = s.pageSize
	}

	q := adSelect
	var where []string
	var args []any

	if len(p.CompetitorIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(p.CompetitorIDs)), ",")
		where = append(where, "a.competitor_id IN ("+placeholders+")")
		for _, id := range p.CompetitorIDs {
			args = append(args, id)
		}
	}
	if len(p.MediaTypes) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(p.MediaTypes)), ",")
		where = append(where, "a.media_type IN ("+placeholders+")")
		for _, mt := range p.MediaTypes {
			args = append(args, mt)
		}
	}
	if len(p.PlatformFragments) > 0 {
		var ors []string
		for _, frag := range p.PlatformFragments {
			ors = append(ors, "instr(lower(a.source_url), ?) > 0")
			args = append(args, strings.ToLower(frag))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	if p.PublishedFrom != nil {
		where = append(where, "a.published_at >= ?")
		args = append(args, p.PublishedFrom.UTC())
	}
	if p.PublishedUntil != nil {
		where = append(where, "a.published_at < ?")
		args = append(args, p.PublishedUntil.UTC())
	}
	if term := strings.ToLower(strings.TrimSpace(p.Search)); term != "" {
		var ors []string
		for _, col := range []string{"a.transcription", "a.image_description", "a.tags", "a.product"} {
			ors = append(ors, "instr(lower("+col+"), ?) > 0")
			args = append(args, term)
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	// Minimum-quality gate: required, not optional.
	where = append(where, "(trim(a.transcription) != '' OR trim(a.image_description) != '' OR trim(a.tags) != '')")

	q += " WHERE " + strings.Join(where, " AND ")
	q += " ORDER BY a.published_at ASC, a.id ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ads: %w", err)
	}
	defer rows.Close()

	var ads []*Ad
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ad row: %w", err)
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

// ListCompetitors returns the full competitor directory, ordered by name.
func (s *SQLiteStore) ListCompetitors(ctx context.Context) ([]*Competitor, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM competitors ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("listing competitors: %w", err)
	}
	defer rows.Close()

	var out []*Competitor
	for rows.Next() {
		c := &Competitor{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning competitor row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// EnsureCompetitor returns the id for name, creating the directory entry
// if needed. Matching is case-insensitive.
func (s *SQLiteStore) EnsureCompetitor(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("competitor name is empty")
	}

	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM competitors WHERE name = ? COLLATE NOCASE", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("looking up competitor %q: %w", name, err)
	}

	result, err := s.db.ExecContext(ctx, "INSERT INTO competitors (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("inserting competitor %q: %w", name, err)
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting competitor insert id: %w", err)
	}
	return id, nil
}

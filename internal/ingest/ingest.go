// Package ingest loads harvested ad dumps into the store.
//
// The harvesting pipeline itself is a separate system; what it hands
// over is a JSON array of ad objects. Malformed entries are skipped and
// counted, never fatal — only an unreadable file or a store failure
// aborts an import.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/veredas/adscope/internal/query"
	"github.com/veredas/adscope/internal/store"
)

// AdInput is one entry of a harvested dump file.
type AdInput struct {
	Competitor       string `json:"competitor"`
	MediaType        string `json:"media_type"`
	Product          string `json:"product"`
	Tags             string `json:"tags"`
	Transcription    string `json:"transcription"`
	ImageDescription string `json:"image_description"`
	SourceURL        string `json:"source_url"`
	PublishedAt      string `json:"published_at"`

	Analysis *struct {
		Rates *store.RateAnalysis `json:"rates"`
	} `json:"ad_analysis"`
}

// ImportOptions configures an import run.
type ImportOptions struct {
	DryRun bool
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Imported int
	Skipped  int
}

// Add merges another result into this one.
func (r *ImportResult) Add(other *ImportResult) {
	r.Imported += other.Imported
	r.Skipped += other.Skipped
}

// Engine loads dump files into a store.
type Engine struct {
	store store.Store
}

// NewEngine creates an import engine.
func NewEngine(st store.Store) *Engine {
	return &Engine{store: st}
}

// ImportFile reads a JSON dump and inserts every well-formed entry.
func (e *Engine) ImportFile(ctx context.Context, path string, opts ImportOptions) (*ImportResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var inputs []AdInput
	if err := json.Unmarshal(b, &inputs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	result := &ImportResult{}
	for _, in := range inputs {
		ad, ok := e.toAd(ctx, in, opts.DryRun)
		if !ok {
			result.Skipped++
			continue
		}
		if !opts.DryRun {
			if _, err := e.store.AddAd(ctx, ad); err != nil {
				return result, fmt.Errorf("inserting ad for %q: %w", in.Competitor, err)
			}
		}
		result.Imported++
	}
	return result, nil
}

// toAd validates and converts one dump entry. Entries without a
// competitor name or with an unparseable timestamp are skipped.
func (e *Engine) toAd(ctx context.Context, in AdInput, dryRun bool) (*store.Ad, bool) {
	name := strings.TrimSpace(in.Competitor)
	if name == "" {
		return nil, false
	}

	mediaType := strings.ToLower(strings.TrimSpace(in.MediaType))
	if mediaType != query.MediaImage && mediaType != query.MediaVideo {
		mediaType = query.MediaImage
	}

	publishedAt, ok := parseTimestamp(in.PublishedAt)
	if !ok {
		return nil, false
	}

	ad := &store.Ad{
		MediaType:        mediaType,
		Product:          in.Product,
		Tags:             in.Tags,
		Transcription:    in.Transcription,
		ImageDescription: in.ImageDescription,
		SourceURL:        in.SourceURL,
		PublishedAt:      publishedAt,
	}
	if in.Analysis != nil {
		ad.Rates = in.Analysis.Rates
	}

	if dryRun {
		ad.CompetitorID = -1
		return ad, true
	}

	id, err := e.store.EnsureCompetitor(ctx, name)
	if err != nil {
		return nil, false
	}
	ad.CompetitorID = id
	return ad, true
}

// parseTimestamp accepts RFC3339 or bare dates (interpreted at the fixed
// local offset).
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, query.LocalOffset()); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// FormatImportResult renders a result for the CLI.
func FormatImportResult(r *ImportResult) string {
	return fmt.Sprintf("Imported %d ads (%d skipped)\n", r.Imported, r.Skipped)
}

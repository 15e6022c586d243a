package metrics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/veredas/adscope/internal/config"
	"github.com/veredas/adscope/internal/perspective"
	"github.com/veredas/adscope/internal/query"
	"github.com/veredas/adscope/internal/signal"
	"github.com/veredas/adscope/internal/store"
	"github.com/veredas/adscope/internal/tags"
)

// Engine computes a Report from the record store. It holds no
// cross-request state: every Compute call folds its own locally-owned
// intermediates, so concurrent computations are safe.
type Engine struct {
	store        store.Store
	tables       config.Tables
	perspectives *perspective.Resolver
	normalizer   *tags.Normalizer
	extractor    *signal.Extractor
}

// Options tunes one Compute call.
type Options struct {
	// TopTags caps the tag ranking (default from the analysis tables,
	// falling back to 20).
	TopTags int
	// TrailingWeeks, when > 0, fixes the weekly series to the last N
	// calendar weeks ending at the current one, zero-filling weeks with
	// no records. When 0 the series is sparse: only weeks that have at
	// least one record appear.
	TrailingWeeks int
	// now overrides the clock for the trailing-week window (tests).
	now func() time.Time
}

// NewEngine builds an engine over a store and the injected analysis
// tables.
func NewEngine(st store.Store, tables config.Tables) *Engine {
	return &Engine{
		store:        st,
		tables:       tables,
		perspectives: perspective.NewResolver(tables.Perspectives),
		normalizer:   tags.NewNormalizer(tables.Stopwords),
		extractor:    signal.NewExtractor(),
	}
}

// Compute resolves the criteria, fetches every matching page from the
// store, and folds the per-record extraction outputs into a Report.
// A store failure mid-pagination aborts the whole computation; partial
// metrics are never returned.
func (e *Engine) Compute(ctx context.Context, c query.Criteria, opts Options) (*Report, error) {
	report := &Report{
		Applied: AppliedFilters{
			Perspective: strings.ToLower(strings.TrimSpace(c.Perspective)),
			Platform:    strings.ToLower(strings.TrimSpace(c.Platform)),
			DateFrom:    c.DateFrom,
			DateTo:      c.DateTo,
			Search:      strings.TrimSpace(c.Search),
		},
		Metrics: emptyMetrics(),
	}

	directory, err := e.competitorDirectory(ctx)
	if err != nil {
		return nil, err
	}

	ids, restricted := e.perspectives.CompetitorSet(c.Perspective, c.CompetitorIDs, directory)
	report.Applied.CompetitorIDs = ids
	if restricted && len(ids) == 0 {
		// The perspective allow-list and the explicit filter exclude
		// each other entirely; nothing can match.
		return report, nil
	}

	c.CompetitorIDs = ids
	pred, err := query.Resolve(c, e.tables.Platforms)
	if err != nil {
		return nil, fmt.Errorf("resolving filters: %w", err)
	}
	report.Applied.MediaTypes = pred.MediaTypes

	ads, err := e.fetchAll(ctx, pred)
	if err != nil {
		return nil, err
	}

	topN := opts.TopTags
	if topN <= 0 {
		topN = e.tables.TopTags
	}
	if topN <= 0 {
		topN = 20
	}

	e.fold(ads, opts, topN, &report.Metrics)
	return report, nil
}

// competitorDirectory loads the directory as lower-cased name → id.
func (e *Engine) competitorDirectory(ctx context.Context) (map[string]int64, error) {
	competitors, err := e.store.ListCompetitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading competitor directory: %w", err)
	}
	directory := make(map[string]int64, len(competitors))
	for _, comp := range competitors {
		directory[strings.ToLower(comp.Name)] = comp.ID
	}
	return directory, nil
}

// fetchAll pages through the store until a short page signals exhaustion.
func (e *Engine) fetchAll(ctx context.Context, pred query.Predicate) ([]*store.Ad, error) {
	pageSize := e.store.PageSize()
	var all []*store.Ad
	for offset := 0; ; offset += pageSize {
		page, err := e.store.QueryAds(ctx, pred, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("fetching ads page at offset %d: %w", offset, err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// fold runs the per-record normalizer and extractor over the filtered set
// and accumulates every output dimension.
func (e *Engine) fold(ads []*store.Ad, opts Options, topN int, out *AggregatedMetrics) {
	out.TotalAds = len(ads)

	byCompetitor := newCounter()
	byMedia := newCounter()
	byPlatform := newCounter()
	byTag := newCounter()
	competitorIDs := make(map[string]int64)
	weeks := make(map[string]int)

	feeValues := make(map[signal.Label][]float64)
	offerValues := make(map[signal.Label][]float64)

	for _, ad := range ads {
		byCompetitor.add(ad.CompetitorName)
		competitorIDs[ad.CompetitorName] = ad.CompetitorID
		byMedia.add(ad.MediaType)
		byPlatform.add(e.platformOf(ad.SourceURL))
		weeks[weekStart(ad.PublishedAt)]++

		for _, tag := range e.normalizer.Normalize(ad.Tags) {
			byTag.add(tag)
		}

		obs := e.extractor.Extract(ad)
		if obs.HasFeeMention {
			out.AdsWithFees++
		}
		for _, f := range obs.Fees {
			feeValues[f.Label] = append(feeValues[f.Label], f.Value)
		}
		for _, o := range obs.Offers {
			offerValues[o.Label] = append(offerValues[o.Label], o.Value)
		}
	}

	for _, row := range byCompetitor.ranked(0) {
		out.ByCompetitor = append(out.ByCompetitor, CompetitorCount{
			CompetitorID: competitorIDs[row.key],
			Competitor:   row.key,
			Count:        row.count,
		})
	}
	for _, row := range byMedia.ranked(0) {
		out.ByMediaType = append(out.ByMediaType, MediaTypeCount{MediaType: row.key, Count: row.count})
	}
	for _, row := range byPlatform.ranked(0) {
		out.Platforms = append(out.Platforms, PlatformCount{Platform: row.key, Count: row.count})
	}
	for _, row := range byTag.ranked(topN) {
		out.TopTags = append(out.TopTags, TagCount{Tag: row.key, Count: row.count})
	}

	out.Weekly = weeklySeries(weeks, opts)
	out.Fees = statsByLabel(feeValues, feeLabelOrder)
	out.Offers = statsByLabel(offerValues, offerLabelOrder)
}

// platformOf classifies a source URL by the configured hostname
// fragments. Platform names are checked in sorted order so ties are
// deterministic; unmatched URLs fall into "other".
func (e *Engine) platformOf(sourceURL string) string {
	url := strings.ToLower(sourceURL)
	names := make([]string, 0, len(e.tables.Platforms))
	for name := range e.tables.Platforms {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, frag := range e.tables.Platforms[name] {
			if frag != "" && strings.Contains(url, strings.ToLower(frag)) {
				return name
			}
		}
	}
	return "other"
}

// weekStart buckets a timestamp to the Sunday of its local calendar week,
// under the fixed -03:00 offset, formatted as YYYY-MM-DD.
func weekStart(t time.Time) string {
	local := t.In(query.LocalOffset())
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, query.LocalOffset())
	start := midnight.AddDate(0, 0, -int(midnight.Weekday()))
	return start.Format("2006-01-02")
}

// weeklySeries orders the sparse week buckets ascending, or zero-fills a
// fixed trailing window when one was requested.
func weeklySeries(weeks map[string]int, opts Options) []WeekCount {
	out := []WeekCount{}

	if opts.TrailingWeeks > 0 {
		now := time.Now
		if opts.now != nil {
			now = opts.now
		}
		last, _ := time.ParseInLocation("2006-01-02", weekStart(now()), query.LocalOffset())
		for i := opts.TrailingWeeks - 1; i >= 0; i-- {
			key := last.AddDate(0, 0, -7*i).Format("2006-01-02")
			out = append(out, WeekCount{WeekStart: key, Count: weeks[key]})
		}
		return out
	}

	keys := make([]string, 0, len(weeks))
	for k := range weeks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, WeekCount{WeekStart: k, Count: weeks[k]})
	}
	return out
}

// feeLabelOrder fixes the output order of fee buckets.
var feeLabelOrder = []signal.Label{
	signal.LabelCredito,
	signal.LabelDebito,
	signal.LabelPix,
	signal.LabelAntecipacao,
	signal.LabelMensalidade,
}

// offerLabelOrder fixes the output order of offer buckets.
var offerLabelOrder = []signal.Label{signal.LabelRendimento}

// statsByLabel computes count/min/median/max per label bucket. Buckets
// with no observations are omitted entirely. Median is the upper-middle
// element (index n/2 of the ascending values).
func statsByLabel(values map[signal.Label][]float64, order []signal.Label) []ValueStats {
	out := []ValueStats{}
	for _, label := range order {
		vs := values[label]
		if len(vs) == 0 {
			continue
		}
		sorted := append([]float64(nil), vs...)
		sort.Float64s(sorted)
		out = append(out, ValueStats{
			Label:  string(label),
			Count:  len(sorted),
			Min:    sorted[0],
			Median: sorted[len(sorted)/2],
			Max:    sorted[len(sorted)-1],
		})
	}
	return out
}

// counter counts string keys while remembering first-encounter order for
// stable tie-breaks.
type counter struct {
	counts map[string]int
	order  map[string]int
	next   int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int), order: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order[key] = c.next
		c.next++
	}
	c.counts[key]++
}

type countRow struct {
	key   string
	count int
}

// ranked returns rows sorted descending by count, ties broken by
// first-encounter order. topN of 0 means unlimited.
func (c *counter) ranked(topN int) []countRow {
	rows := make([]countRow, 0, len(c.counts))
	for k, n := range c.counts {
		rows = append(rows, countRow{key: k, count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return c.order[rows[i].key] < c.order[rows[j].key]
	})
	if topN > 0 && len(rows) > topN {
		rows = rows[:topN]
	}
	return rows
}

// Package metrics folds filtered ad records into the competitive-summary
// structures served to callers: counts by competitor and media type,
// weekly volume, top tags, fee/offer statistics and platform distribution.
//
// Everything here is recomputed per request from the filtered record set;
// nothing is persisted or mutated in place.
package metrics

// CompetitorCount is one row of the by-competitor breakdown.
type CompetitorCount struct {
	CompetitorID int64  `json:"competitor_id"`
	Competitor   string `json:"competitor"`
	Count        int    `json:"count"`
}

// MediaTypeCount is one row of the by-media-type breakdown.
type MediaTypeCount struct {
	MediaType string `json:"media_type"`
	Count     int    `json:"count"`
}

// WeekCount is one bucket of the weekly volume series. WeekStart is the
// local-calendar week start (Sunday) formatted as YYYY-MM-DD.
type WeekCount struct {
	WeekStart string `json:"week_start"`
	Count     int    `json:"count"`
}

// TagCount is one row of the top-tags ranking.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ValueStats summarizes one fee or offer bucket. Median follows the
// upper-middle convention: the element at index n/2 of the ascending
// values, not the average of the two middle elements.
type ValueStats struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// PlatformCount is one row of the platform distribution.
type PlatformCount struct {
	Platform string `json:"platform"`
	Count    int    `json:"count"`
}

// AggregatedMetrics is the engine's sole output. Lists are always
// non-nil; an empty filtered set yields empty lists, never null.
type AggregatedMetrics struct {
	TotalAds    int               `json:"total_ads"`
	AdsWithFees int               `json:"ads_with_fees"`

	ByCompetitor []CompetitorCount `json:"by_competitor"`
	ByMediaType  []MediaTypeCount  `json:"by_media_type"`
	Weekly       []WeekCount       `json:"weekly"`
	TopTags      []TagCount        `json:"top_tags"`
	Fees         []ValueStats      `json:"fees"`
	Offers       []ValueStats      `json:"offers"`
	Platforms    []PlatformCount   `json:"platforms"`
}

// AppliedFilters echoes the normalized filters a report was computed
// under.
type AppliedFilters struct {
	Perspective   string   `json:"perspective,omitempty"`
	CompetitorIDs []int64  `json:"competitor_ids,omitempty"`
	Platform      string   `json:"platform,omitempty"`
	MediaTypes    []string `json:"media_types,omitempty"`
	DateFrom      string   `json:"date_from,omitempty"`
	DateTo        string   `json:"date_to,omitempty"`
	Search        string   `json:"search,omitempty"`
}

// Report is the caller-facing response: applied filters plus metrics.
type Report struct {
	Applied AppliedFilters    `json:"applied_filters"`
	Metrics AggregatedMetrics `json:"metrics"`
}

// emptyMetrics returns a zeroed metrics object with all lists allocated.
func emptyMetrics() AggregatedMetrics {
	return AggregatedMetrics{
		ByCompetitor: []CompetitorCount{},
		ByMediaType:  []MediaTypeCount{},
		Weekly:       []WeekCount{},
		TopTags:      []TagCount{},
		Fees:         []ValueStats{},
		Offers:       []ValueStats{},
		Platforms:    []PlatformCount{},
	}
}

// Package query normalizes caller-supplied filter parameters into the
// predicate consumed by the record store.
//
// All date handling uses a fixed -03:00 offset: day-precision bounds are
// expanded to full local-day spans (start of day inclusive, next-day start
// exclusive). This matches the deployment the harvested data came from and
// is deliberately not timezone-database aware.
package query

import (
	"fmt"
	"strings"
	"time"
)

// localOffset is the fixed UTC offset used for day-span expansion.
var localOffset = time.FixedZone("-03:00", -3*60*60)

// dateLayout is the accepted day-precision date format.
const dateLayout = "2006-01-02"

// MediaImage and MediaVideo are the known media types.
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// searchFields names the ad fields the free-text predicate scans.
var searchFields = []string{"transcription", "image_description", "tags", "product"}

// contentFields names the fields of which at least one must be non-empty
// for a record to pass the minimum-quality gate.
var contentFields = []string{"transcription", "image_description", "tags"}

// Criteria holds the raw, optional filter parameters as the caller sent
// them. Zero values mean "no constraint on this dimension".
type Criteria struct {
	Perspective   string
	CompetitorIDs []int64
	Platform      string
	MediaTypes    []string
	DateFrom      string // YYYY-MM-DD, inclusive
	DateTo        string // YYYY-MM-DD, inclusive
	Search        string
}

// Predicate is the normalized filter description handed to the store.
// Nil/empty members mean the dimension is unconstrained. PublishedFrom is
// inclusive and PublishedUntil exclusive, both already expanded to the
// fixed-offset day boundaries.
type Predicate struct {
	CompetitorIDs     []int64
	MediaTypes        []string
	PlatformFragments []string
	PublishedFrom     *time.Time
	PublishedUntil    *time.Time
	Search            string
}

// Resolve normalizes criteria into a store predicate. platforms maps a
// platform name to the hostname fragments that identify it; an unknown
// hint falls back to the lower-cased hint itself as a single fragment.
// Competitor-set resolution (perspective handling) happens before this,
// in the perspective package; Resolve takes the already-resolved id set.
func Resolve(c Criteria, platforms map[string][]string) (Predicate, error) {
	p := Predicate{
		CompetitorIDs: c.CompetitorIDs,
		Search:        strings.TrimSpace(c.Search),
	}

	for _, mt := range c.MediaTypes {
		mt = strings.ToLower(strings.TrimSpace(mt))
		if mt == "" {
			continue
		}
		if mt != MediaImage && mt != MediaVideo {
			return Predicate{}, fmt.Errorf("unknown media type %q", mt)
		}
		p.MediaTypes = append(p.MediaTypes, mt)
	}

	if hint := strings.ToLower(strings.TrimSpace(c.Platform)); hint != "" {
		p.PlatformFragments = resolvePlatform(hint, platforms)
	}

	if c.DateFrom != "" {
		t, err := time.ParseInLocation(dateLayout, c.DateFrom, localOffset)
		if err != nil {
			return Predicate{}, fmt.Errorf("parsing date-from %q: %w", c.DateFrom, err)
		}
		p.PublishedFrom = &t
	}
	if c.DateTo != "" {
		t, err := time.ParseInLocation(dateLayout, c.DateTo, localOffset)
		if err != nil {
			return Predicate{}, fmt.Errorf("parsing date-to %q: %w", c.DateTo, err)
		}
		// Inclusive day bound: the span runs to the start of the next day.
		until := t.AddDate(0, 0, 1)
		p.PublishedUntil = &until
	}
	if p.PublishedFrom != nil && p.PublishedUntil != nil && !p.PublishedFrom.Before(*p.PublishedUntil) {
		return Predicate{}, fmt.Errorf("date-from %s is after date-to %s", c.DateFrom, c.DateTo)
	}

	return p, nil
}

// resolvePlatform maps a platform hint onto hostname fragments. The hint
// matches a platform by name, or by being contained in (or containing)
// one of its fragments.
func resolvePlatform(hint string, platforms map[string][]string) []string {
	if frags, ok := platforms[hint]; ok && len(frags) > 0 {
		return frags
	}
	for _, frags := range platforms {
		for _, f := range frags {
			f = strings.ToLower(f)
			if strings.Contains(f, hint) || strings.Contains(hint, f) {
				return frags
			}
		}
	}
	return []string{hint}
}

// SearchFields returns the fixed list of fields the free-text predicate
// scans, in scan order.
func SearchFields() []string {
	return append([]string(nil), searchFields...)
}

// ContentFields returns the fixed list of content-bearing fields used by
// the minimum-quality gate.
func ContentFields() []string {
	return append([]string(nil), contentFields...)
}

// MatchesSearch reports whether term appears case-insensitively in any of
// the given field values. An empty term matches everything.
func MatchesSearch(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// HasContent reports whether at least one field value is non-blank. This
// is the minimum-quality gate: records failing it are excluded before any
// extraction work.
func HasContent(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return true
		}
	}
	return false
}

// LocalOffset returns the fixed offset location used for all day and week
// arithmetic.
func LocalOffset() *time.Location {
	return localOffset
}

// Package tags normalizes the raw delimiter-separated tag strings that
// ride along with harvested ads.
package tags

import "strings"

// Normalizer splits and cleans raw tag strings. The stopword set holds
// competitor brand names: they appear in almost every record of their own
// brand and would dominate any frequency ranking, so they are dropped.
type Normalizer struct {
	stopwords map[string]bool
}

// NewNormalizer builds a normalizer with the given stopword set. Stopwords
// are matched exactly against normalized segments.
func NewNormalizer(stopwords []string) *Normalizer {
	set := make(map[string]bool, len(stopwords))
	for _, w := range stopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = true
		}
	}
	return &Normalizer{stopwords: set}
}

// Normalize splits raw on commas and semicolons, trims, lower-cases,
// drops empty segments and stopwords. Duplicates within one record are
// kept; de-duplication is the aggregator's concern. Normalization is
// idempotent: feeding the joined output back in yields the same list.
func (n *Normalizer) Normalize(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	segments := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})

	var out []string
	for _, seg := range segments {
		tag := strings.ToLower(strings.TrimSpace(seg))
		if tag == "" || n.stopwords[tag] {
			continue
		}
		out = append(out, tag)
	}
	return out
}

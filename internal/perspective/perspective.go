// Package perspective maps a named competitive viewpoint to the competitor
// ids it allows. Perspective tables are injected (see config.Tables), not
// package state.
package perspective

import (
	"sort"
	"strings"
)

// Resolver resolves perspective tags against a competitor directory.
type Resolver struct {
	perspectives map[string][]string
}

// NewResolver builds a resolver over a perspective → display-name table.
func NewResolver(perspectives map[string][]string) *Resolver {
	normalized := make(map[string][]string, len(perspectives))
	for tag, names := range perspectives {
		normalized[strings.ToLower(strings.TrimSpace(tag))] = names
	}
	return &Resolver{perspectives: normalized}
}

// Names returns the allow-list of competitor display names for a
// perspective tag. An unknown or empty tag yields nil, meaning "no
// restriction — all competitors". This is never an error.
func (r *Resolver) Names(tag string) []string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return nil
	}
	return r.perspectives[tag]
}

// ResolveIDs matches display names against the directory (lower-cased
// name → id, exact case-insensitive match) and returns the matched ids
// sorted ascending. Unknown names are skipped.
func ResolveIDs(names []string, directory map[string]int64) []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	for _, name := range names {
		id, ok := directory[strings.ToLower(strings.TrimSpace(name))]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CompetitorSet combines a perspective tag with an explicit competitor-id
// filter. When the perspective resolves to a non-empty set, an explicit
// filter intersects with it; otherwise the explicit filter applies as-is.
// The second return reports whether any restriction applies at all: an
// empty id set with restricted=true means the intersection excluded
// everything, which is different from "unconstrained".
func (r *Resolver) CompetitorSet(tag string, explicit []int64, directory map[string]int64) ([]int64, bool) {
	fromPerspective := ResolveIDs(r.Names(tag), directory)
	if len(fromPerspective) == 0 {
		return explicit, len(explicit) > 0
	}
	if len(explicit) == 0 {
		return fromPerspective, true
	}

	allowed := make(map[int64]bool, len(fromPerspective))
	for _, id := range fromPerspective {
		allowed[id] = true
	}
	var out []int64
	for _, id := range explicit {
		if allowed[id] {
			out = append(out, id)
			allowed[id] = false
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, true
}

package listview

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// SuggestCarriers ranks known carrier names against input. Names containing
// input as a prefix come first, then the rest by edit distance. Names farther
// than maxDistance edits from input (and not prefixed by it) are dropped.
func SuggestCarriers(known []string, input string, limit, maxDistance int) []string {
	q := strings.ToLower(strings.TrimSpace(input))
	if q == "" || limit <= 0 {
		return nil
	}
	type scored struct {
		name   string
		prefix bool
		dist   int
	}
	seen := map[string]struct{}{}
	var cands []scored
	for _, name := range known {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == "" || lower == q {
			continue
		}
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}

		prefix := strings.HasPrefix(lower, q)
		head := []rune(lower)
		if n := len([]rune(q)); len(head) > n {
			head = head[:n]
		}
		dist := levenshtein.ComputeDistance(q, string(head))
		if !prefix && dist > maxDistance {
			continue
		}
		cands = append(cands, scored{name: strings.TrimSpace(name), prefix: prefix, dist: dist})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].prefix != cands[j].prefix {
			return cands[i].prefix
		}
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return strings.ToLower(cands[i].name) < strings.ToLower(cands[j].name)
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}

// Carriers dedupes names case-insensitively, keeping first-seen order.
func Carriers(names []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(n))
	}
	return out
}

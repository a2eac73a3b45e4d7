// Package suggest produces "did you mean" candidates for misspelled names.
//
// It is used to improve diagnostics when a configuration refers to a name
// that does not exist: unknown block types, unknown reference targets and
// undeclared variables all pass their candidate sets through here.
package suggest

import "github.com/agext/levenshtein"

// String returns the candidate that most closely resembles want.
//
// A candidate is only returned if it is reasonably close; the allowed
// distance grows with the length of want so that short names must match
// almost exactly while longer names tolerate a few typos. Callers should
// treat the heuristic as opaque, it may be tuned.
//
// Returns an empty string when no candidate is close enough.
func String(want string, candidates []string) string {
	limit := len(want) / 5
	if limit == 0 {
		limit = 1
	}

	best := ""
	bestDist := limit + 1
	for _, c := range candidates {
		if c == want {
			return want
		}
		if d := levenshtein.Distance(want, c, nil); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

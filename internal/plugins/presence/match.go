package presence

import "strings"

// likeMatch reports whether s matches a SQL LIKE pattern, where '%' matches
// any run of characters and '_' matches exactly one. Matching is case
// insensitive, the way the database collation the patterns were written for
// behaves.
func likeMatch(pattern, s string) bool {
	return likeMatchFold(strings.ToLower(pattern), strings.ToLower(s))
}

// likeMatchFold does greedy wildcard matching with backtracking on '%'.
func likeMatchFold(pattern, s string) bool {
	var pi, si int
	starP, starS := -1, 0

	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '_' || pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '%':
			starP = pi
			starS = si
			pi++
		case starP >= 0:
			// Mismatch after a '%': let the '%' swallow one more character
			starS++
			pi = starP + 1
			si = starS
		default:
			return false
		}
	}

	for pi < len(pattern) && pattern[pi] == '%' {
		pi++
	}
	return pi == len(pattern)
}

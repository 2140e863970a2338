// Package similarity provides the string-distance primitives used by the
// composite matcher: Levenshtein edit distance and a length-normalized
// similarity score.
package similarity

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Distance returns the minimum number of single-character inserts,
// deletes and substitutions needed to transform a into b. The working
// row is allocated over the shorter input, so memory is O(min(|a|,|b|)).
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Score maps edit distance onto [0,1]: 1 - distance/max(|a|,|b|,1).
// Symmetric and reflexive; two empty strings score 1.0.
func Score(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)

	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}

	score := 1.0 - float64(Distance(a, b))/float64(longest)
	if score < 0 {
		return 0
	}
	return score
}

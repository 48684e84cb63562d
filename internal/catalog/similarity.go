package catalog

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// MatchThreshold is the minimum similarity for a title to count as a match.
const MatchThreshold = 0.85

// Similarity returns the Levenshtein distance between a and b normalized to
// [0,1], where 1 means identical. Both strings are compared in NFC form.
func Similarity(a, b string) float64 {
	a, b = norm.NFC.String(a), norm.NFC.String(b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

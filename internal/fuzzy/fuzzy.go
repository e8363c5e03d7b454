// Package fuzzy implements the similarity metric used for translation
// memory matching: a normalized Levenshtein ratio where substitutions cost
// two edits and insertions/deletions cost one. The same weighting is used
// by the SQL scoring path, so scores are comparable across strategies.
package fuzzy

import "math"

const (
	// maxBulkLength is the longest admissible-window bound for which the
	// set-oriented SQL scoring pass stays tractable. Longer inputs fall
	// back to a coarse prefix pre-filter plus exact scoring in Go.
	maxBulkLength = 255

	// maxWindow caps the admissible window for very long inputs.
	maxWindow = 1000
)

// Window returns the admissible source-length window [minDist, maxDist]
// for a query of the given character length: a Levenshtein ratio of at
// least minQuality is mathematically impossible for candidates outside it.
func Window(length int, minQuality float64) (minDist, maxDist int) {
	minDist = int(math.Ceil(math.Max(float64(length)*minQuality, 2)))
	maxDist = int(math.Floor(math.Min(float64(length)/minQuality, maxWindow)))
	return minDist, maxDist
}

// UseBulkScoring reports whether the window permits the single-pass SQL
// scoring strategy.
func UseBulkScoring(minDist, maxDist int) bool {
	return minDist <= maxBulkLength && maxDist <= maxBulkLength
}

// PrefixLimit is the number of leading characters compared in the coarse
// pre-filter of the scalar strategy.
const PrefixLimit = maxBulkLength

// Ratio returns the normalized similarity of a and b in [0, 1]:
// (len(a)+len(b)-distance)/(len(a)+len(b)), with the weighted edit
// distance. Operates on runes. Two empty strings are identical.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	lensum := len(ra) + len(rb)
	if lensum == 0 {
		return 1
	}
	return float64(lensum-distance(ra, rb)) / float64(lensum)
}

// distance computes the edit distance with substitution cost 2 and
// insertion/deletion cost 1, using two rolling rows.
func distance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			subst := prev[j-1]
			if a[i-1] != b[j-1] {
				subst += 2
			}
			curr[j] = min(subst, min(prev[j]+1, curr[j-1]+1))
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

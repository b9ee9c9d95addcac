package dedup

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

const (
	// MinContainedLen is the shortest text for which containment alone
	// counts as a duplicate. Short generic stems match too much otherwise.
	MinContainedLen = 12

	// SimilarityThreshold is the minimum edit-distance ratio for two texts
	// to be near-duplicates.
	SimilarityThreshold = 0.90
)

// IsSimilar reports whether two normalized texts denote the same question.
// It is symmetric, and reflexive for non-empty input.
func IsSimilar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		shorter := min(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
		if shorter >= MinContainedLen {
			return true
		}
	}
	return Ratio(a, b) >= SimilarityThreshold
}

// Ratio is 1 - distance/longer length over runes, in [0,1].
func Ratio(a, b string) float64 {
	return levenshtein.Similarity(a, b, nil)
}

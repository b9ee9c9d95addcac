// Package dedup detects near-duplicate quiz questions.
package dedup

import (
	"regexp"
	"strings"
)

var (
	jsonFence  = regexp.MustCompile("(?i)```json\\s*([\\s\\S]*?)```")
	plainFence = regexp.MustCompile("```([\\s\\S]*?)```")
	// Hangul syllables are letters, the explicit range documents intent.
	nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s가-힣]`)
)

// Normalize canonicalizes question text for comparison: code fences are
// unwrapped, case folded, punctuation replaced by spaces and whitespace
// collapsed. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := jsonFence.ReplaceAllString(raw, "$1")
	s = plainFence.ReplaceAllString(s, "$1")
	s = strings.ToLower(s)
	s = nonWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

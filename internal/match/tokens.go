package match

import (
	"strings"
	"unicode"
)

// Sanitize strips every character that is not a letter, digit or whitespace.
// Profile fields are free text; whatever survives becomes search tokens.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// Tokenize lowercases, sanitizes and splits free text into deduplicated
// search tokens. Single-character fragments carry no signal and are dropped.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(Sanitize(text)))
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		if len(f) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// BuildTSQuery turns tokens into a relaxed prefix-OR tsquery: any token
// matching any indexed word qualifies a candidate.
func BuildTSQuery(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t+":*")
	}
	return strings.Join(parts, " | ")
}

package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses every run of whitespace
// into a single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeRoomName is the canonical form room names are stored and compared in.
func NormalizeRoomName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeLocation(location string) string {
	return TrimAndNormalize(location)
}

func NormalizePurpose(purpose string) string {
	return strings.TrimSpace(purpose)
}

// NormalizeID strips surrounding whitespace and lowercases hex identifiers.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// MatchFold returns the candidate equal to s under case folding and whitespace
// normalization, or s unchanged when nothing matches.
func MatchFold(s string, candidates []string) string {
	normalized := TrimAndNormalize(s)
	for _, c := range candidates {
		if strings.EqualFold(normalized, c) {
			return c
		}
	}
	return s
}

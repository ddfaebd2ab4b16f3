package sanitizer

import (
	"strings"
	"unicode"
)

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

func NormalizeName(name string) string {
	p := Pipeline{TrimAndNormalize}
	return p.Apply(name)
}

// NormalizeLabel lowercases in addition to whitespace normalization. Used for
// fields matched case-insensitively downstream.
func NormalizeLabel(label string) string {
	p := Pipeline{TrimAndNormalize, strings.ToLower}
	return p.Apply(label)
}

package casing

import (
	"strings"
	"unicode"
)

func ToKebabCase(s string) string {
	return toDelimited(s, '-')
}

func ToSnakeCase(s string) string {
	return toDelimited(s, '_')
}

// toDelimited lower-cases s and inserts sep at word boundaries. Existing
// underscores and hyphens become sep.
func toDelimited(s string, sep rune) string {
	runes := []rune(s)

	var result strings.Builder
	for i, r := range runes {
		switch {
		case r == '_' || r == '-':
			result.WriteRune(sep)
		case i > 0 && unicode.IsUpper(r):
			// If current letter is uppercase and...
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || // previous letter is lowercase
				(unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])) { // or next letter is lowercase
				result.WriteRune(sep)
			}
			result.WriteRune(unicode.ToLower(r))
		default:
			result.WriteRune(unicode.ToLower(r))
		}
	}
	return result.String()
}

// UpperFirst upper-cases the first letter of s and leaves the rest untouched.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func SnakeToTitleCase(s string) string {
	var result strings.Builder
	capitalize := true

	for _, r := range s {
		switch {
		case r == '_' || r == '-':
			// Replace separators with a space
			result.WriteRune(' ')
			capitalize = true
		case capitalize:
			// Capitalize the first letter after a separator or at the beginning
			result.WriteRune(unicode.ToUpper(r))
			capitalize = false
		default:
			// Keep other letters as they are
			result.WriteRune(r)
		}
	}

	return result.String()
}

package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// StringOr returns the cleaned s, or fallback when s is blank.
func StringOr(s, fallback string) string {
	if s = CleanString(s); s != "" {
		return s
	}
	return fallback
}

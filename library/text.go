package library

import "unicode/utf8"

// Truncate shortens s to at most width characters, marking the cut with
// "...". It counts runes, so multi-byte titles are never split.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

package library

import "strings"

// UniqueByTitle drops books whose title equals, ignoring case, the title
// of an earlier book. Order is preserved and the first copy wins.
func UniqueByTitle(books []Book) []Book {
	seen := make(map[string]struct{}, len(books))
	out := make([]Book, 0, len(books))
	for _, b := range books {
		key := strings.ToLower(b.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, b)
	}
	return out
}

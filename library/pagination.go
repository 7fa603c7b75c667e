package library

import "strconv"

// Page sizes used by the dashboard lists.
const (
	OverduePageSize   = 15
	LibrarianPageSize = 10
)

// Gap stands for the skipped pages in PageNumbers.
const Gap = "..."

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items      []T
	Number     int // 1-based, clamped into range
	TotalPages int
	Total      int
}

// Paginate returns page number page (1-based) of items. Out of range
// pages are clamped to the first or last one.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = len(items)
		if perPage == 0 {
			perPage = 1
		}
	}
	total := (len(items) + perPage - 1) / perPage
	page = max(1, min(page, total))

	start := min((page-1)*perPage, len(items))
	end := min(start+perPage, len(items))
	return Page[T]{
		Items:      items[start:end],
		Number:     page,
		TotalPages: total,
		Total:      len(items),
	}
}

// PageNumbers lists the page links shown for current out of total: all
// of them up to five pages, otherwise the first and last page, a window
// around current and Gap markers in between.
func PageNumbers(current, total int) []string {
	const maxVisible = 5

	var pages []int
	gapAfter := map[int]bool{}
	switch {
	case total <= maxVisible:
		pages = seq(1, total)
	case current <= 3:
		pages = append(seq(1, 4), total)
		gapAfter[4] = true
	case current >= total-2:
		pages = append([]int{1}, seq(total-3, total)...)
		gapAfter[1] = true
	default:
		pages = append(append([]int{1}, seq(current-1, current+1)...), total)
		gapAfter[1] = true
		gapAfter[current+1] = true
	}

	out := make([]string, 0, len(pages)+2)
	for _, p := range pages {
		out = append(out, strconv.Itoa(p))
		if gapAfter[p] {
			out = append(out, Gap)
		}
	}
	return out
}

func seq(from, to int) []int {
	if to < from {
		return nil
	}
	s := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		s = append(s, i)
	}
	return s
}

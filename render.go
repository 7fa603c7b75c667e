package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"library-dashboard/library"
)

func printBooks(w io.Writer, books []library.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}
	fmt.Fprintf(w, "%-6s %-40s %-25s %-15s %-10s\n", "ID", "Title", "Author", "Genre", "Status")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, b := range books {
		fmt.Fprintf(w, "%-6d %-40s %-25s %-15s %-10s\n",
			b.ID, library.Truncate(b.Title, 40), library.Truncate(b.Author, 25),
			library.Truncate(b.Genre, 15), b.AvailabilityStatus)
	}
}

func printMembers(w io.Writer, members []library.Member) {
	if len(members) == 0 {
		fmt.Fprintln(w, "No members found.")
		return
	}
	fmt.Fprintf(w, "%-6s %-25s %-30s %-15s\n", "ID", "Name", "Email", "Phone")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, m := range members {
		fmt.Fprintf(w, "%-6d %-25s %-30s %-15s\n",
			m.ID, library.Truncate(m.Name, 25), library.Truncate(m.Email, 30), m.PhoneNumber)
	}
}

func printLibrarians(w io.Writer, page library.Page[library.Librarian]) {
	if page.Total == 0 {
		fmt.Fprintln(w, "No librarians found.")
		return
	}
	fmt.Fprintf(w, "%-6s %-25s %-30s %-15s %-10s %-10s\n", "ID", "Name", "Email", "Phone", "Shift", "Status")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, l := range page.Items {
		fmt.Fprintf(w, "%-6d %-25s %-30s %-15s %-10s %-10s\n",
			l.ID, library.Truncate(l.Name, 25), library.Truncate(l.Email, 30), l.PhoneNumber, l.Shift, l.Status)
	}
	printPager(w, page.Number, page.TotalPages, page.Total)
}

func printBorrowings(w io.Writer, items []library.EnrichedBorrowing, now time.Time) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No borrowings found.")
		return
	}
	fmt.Fprintf(w, "%-6s %-30s %-22s %-12s %-10s %s\n", "ID", "Book", "Borrower", "Due", "Status", "")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, it := range items {
		fmt.Fprintf(w, "%-6d %-30s %-22s %-12s %-10s %s\n",
			it.ID, library.Truncate(it.BookName, 30), library.Truncate(it.BorrowerName, 22),
			it.ReturnDate, it.Status(), library.DueLabel(it.Borrowing, now))
	}
}

func printOverdue(w io.Writer, page library.Page[library.EnrichedBorrowing]) {
	if page.Total == 0 {
		fmt.Fprintln(w, "No overdue books found.")
		return
	}
	fmt.Fprintf(w, "%-6s %-30s %-22s %-28s %-12s %-6s %s\n", "ID", "Book", "Borrower", "Email", "Due", "Days", "Fine")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, it := range page.Items {
		days := 0
		if it.DaysPastDue != nil {
			days = *it.DaysPastDue
		}
		fmt.Fprintf(w, "%-6d %-30s %-22s %-28s %-12s %-6d %s\n",
			it.ID, library.Truncate(it.BookName, 30), library.Truncate(it.BorrowerName, 22),
			library.Truncate(it.BorrowerEmail, 28), it.ReturnDate, days, it.Fine)
	}
	printPager(w, page.Number, page.TotalPages, page.Total)
}

func printBorrowingDetails(w io.Writer, it library.EnrichedBorrowing, now time.Time) {
	fmt.Fprintf(w, "Borrowing %d\n", it.ID)
	fmt.Fprintf(w, "  Book:      %s by %s (ID: %d)\n", it.BookName, it.Author, it.BookID)
	fmt.Fprintf(w, "  Borrower:  %s <%s> (ID: %d)\n", it.BorrowerName, it.BorrowerEmail, it.MemberID)
	fmt.Fprintf(w, "  Borrowed:  %s\n", it.BorrowingDate)
	fmt.Fprintf(w, "  Due:       %s\n", it.ReturnDate)
	fmt.Fprintf(w, "  Status:    %s\n", it.Status())
	if !it.Status().IsReturned() {
		fmt.Fprintf(w, "  Remaining: %s\n", library.DueLabel(it.Borrowing, now))
	}
	if it.ImageURL != "" {
		fmt.Fprintf(w, "  Cover:     %s\n", it.ImageURL)
	}
}

func printDashboard(w io.Writer, d library.Dashboard, now time.Time) {
	stats := d.Stats()
	fmt.Fprintf(w, "Borrowed Books: %d   Overdue Books: %d   Members: %d\n\n",
		stats.Borrowed, stats.Overdue, stats.Members)

	fmt.Fprintln(w, "Library Overview")
	printCounts(w, stats.Overview())
	fmt.Fprintln(w, "\nBooks by Category")
	if genres := library.GenreCounts(d.Books); len(genres) > 0 {
		printCounts(w, genres)
	} else {
		fmt.Fprintln(w, "  No Data")
	}

	fmt.Fprintln(w, "\nOverdue Book List")
	overdue := d.Views.Overdue
	if len(overdue) > 5 {
		overdue = overdue[:5]
	}
	printOverdue(w, library.Paginate(overdue, 1, 5))

	fmt.Fprintln(w, "\nCurrently Borrowed")
	printBorrowings(w, d.Views.CurrentlyBorrowed, now)
}

func printCounts(w io.Writer, counts []library.Count) {
	for _, c := range counts {
		fmt.Fprintf(w, "  %-20s %5d %s\n", library.Truncate(c.Label, 20), c.Count, strings.Repeat("#", min(c.Count, 50)))
	}
}

func printPager(w io.Writer, current, total, items int) {
	if total <= 1 {
		return
	}
	fmt.Fprintf(w, "\nPages: %s  (page %d of %d, %d total)\n", pageLinks(current, total), current, total, items)
}

func pageLinks(current, total int) string {
	links := library.PageNumbers(current, total)
	cur := strconv.Itoa(current)
	for i, l := range links {
		if l == cur {
			links[i] = "[" + l + "]"
		}
	}
	return strings.Join(links, " ")
}

package library

import (
	"fmt"
	"time"
)

// DefaultFinePerDay is the fine charged for each day a book is overdue.
const DefaultFinePerDay = 5.0

// Views are the three borrowing lists shown by the dashboard.
type Views struct {
	All []EnrichedBorrowing
	// CurrentlyBorrowed holds everything not returned, overdue or not.
	CurrentlyBorrowed []EnrichedBorrowing
	// Overdue entries carry DaysPastDue and Fine.
	Overdue []EnrichedBorrowing
}

// Classify derives the dashboard views from enriched borrowings as of
// now. It does not modify items; overdue entries are copies.
func Classify(items []EnrichedBorrowing, now time.Time, finePerDay float64) Views {
	v := Views{
		All:               items,
		CurrentlyBorrowed: make([]EnrichedBorrowing, 0, len(items)),
		Overdue:           make([]EnrichedBorrowing, 0),
	}
	for _, it := range items {
		if it.Status().IsReturned() {
			continue
		}
		v.CurrentlyBorrowed = append(v.CurrentlyBorrowed, it)

		days, overdue := daysOverdue(it.Borrowing, now)
		if !overdue {
			continue
		}
		it.DaysPastDue = &days
		it.Fine = FormatFine(Fine(days, finePerDay))
		v.Overdue = append(v.Overdue, it)
	}
	return v
}

// OverdueDays reports whether b is overdue at now and by how many days.
// Returned borrowings and borrowings without a readable due date are
// never overdue. A book due today is not overdue.
func OverdueDays(b Borrowing, now time.Time) (int, bool) {
	if b.Status().IsReturned() {
		return 0, false
	}
	return daysOverdue(b, now)
}

func daysOverdue(b Borrowing, now time.Time) (int, bool) {
	due, ok := b.DueDate()
	if !ok {
		return 0, false
	}
	days := DaysPastDue(due, now)
	if days < 1 {
		return 0, false
	}
	return days, true
}

// DaysPastDue is the number of whole days between the calendar date of
// due and that of now, each read in its own location. A due date is a
// calendar day, so it is never shifted into now's zone. The result is
// zero or negative when the book is not yet due.
func DaysPastDue(due, now time.Time) int {
	return calendarDays(Midnight(due), Midnight(now))
}

// DaysRemaining is the inverse of DaysPastDue: zero means due today,
// negative means overdue by the absolute value.
func DaysRemaining(due, now time.Time) int {
	return -DaysPastDue(due, now)
}

// Midnight returns the start of t's calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// calendarDays counts days from one midnight to another. Dates are
// compared on a UTC calendar so a DST switch between them cannot turn
// a 23 or 25 hour day into a different count.
func calendarDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}

// Fine is the amount owed for days overdue.
func Fine(days int, perDay float64) float64 {
	return float64(days) * perDay
}

// FormatFine renders an amount the way the dashboard shows money.
func FormatFine(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// DueLabel describes the due date of b relative to now for detail views.
func DueLabel(b Borrowing, now time.Time) string {
	due, ok := b.DueDate()
	if !ok {
		return "No due date available"
	}
	switch days := DaysRemaining(due, now); {
	case days < 0:
		return fmt.Sprintf("%d days overdue", -days)
	case days == 0:
		return "Due today"
	default:
		return fmt.Sprintf("%d days remaining", days)
	}
}

package library

import (
	"strings"
	"time"
)

// AvailabilityStatus is the shelf state of a single book copy.
type AvailabilityStatus string

const (
	StatusAvailable AvailabilityStatus = "Available"
	StatusBorrowed  AvailabilityStatus = "Borrowed"
	StatusLost      AvailabilityStatus = "Lost"
)

// Shift is the working shift of a librarian.
type Shift string

const (
	ShiftMorning  Shift = "Morning"
	ShiftEvening  Shift = "Evening"
	ShiftNight    Shift = "Night"
	ShiftFullTime Shift = "Full Time"
)

// LibrarianStatus is the employment state of a librarian.
type LibrarianStatus string

const (
	LibrarianActive   LibrarianStatus = "Active"
	LibrarianOnLeave  LibrarianStatus = "On Leave"
	LibrarianInactive LibrarianStatus = "Inactive"
)

// Book is a single catalogue entry as served by the books endpoint.
// Titles are not unique: several copies of one title are distinct books.
type Book struct {
	ID                 int64              `json:"bookId"`
	Title              string             `json:"bookName"`
	Author             string             `json:"author"`
	Genre              string             `json:"genre"`
	AvailabilityStatus AvailabilityStatus `json:"availabilityStatus"`
	ImageURL           string             `json:"imageUrl,omitempty"`
}

// Member represents a registered library member.
type Member struct {
	ID          int64  `json:"memberId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Address     string `json:"address,omitempty"`
}

// Librarian is a staff account managed from the dashboard.
type Librarian struct {
	ID            int64           `json:"librarianId"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	PhoneNumber   string          `json:"phoneNumber"`
	NIC           string          `json:"nic,omitempty"`
	Address       string          `json:"address"`
	Shift         Shift           `json:"shift"`
	Status        LibrarianStatus `json:"status"`
	Experience    string          `json:"experience"`
	JoinDate      string          `json:"joinDate"`
	Qualification string          `json:"qualification,omitempty"`
	// Password is only sent when a librarian is created.
	Password string `json:"password,omitempty"`
}

// Borrowing is the raw borrowing record. ReturnDate is the due date; the
// API keeps the historical field name.
type Borrowing struct {
	ID            int64  `json:"borrowingId"`
	MemberID      int64  `json:"memberId"`
	BookID        int64  `json:"bookId"`
	BorrowingDate string `json:"borrowingDate"`
	ReturnDate    string `json:"returnDate"`
	ReturnStatus  string `json:"returnStatus"`
}

// Status parses the free-form return status once.
func (b Borrowing) Status() ReturnStatus { return ParseReturnStatus(b.ReturnStatus) }

// DueDate parses ReturnDate. ok is false when the date is missing or
// cannot be read.
func (b Borrowing) DueDate() (time.Time, bool) { return parseDate(b.ReturnDate) }

// EnrichedBorrowing is a borrowing joined with the member and book
// snapshots that were current when it was fetched.
type EnrichedBorrowing struct {
	Borrowing
	BorrowerName  string       `json:"borrowerName"`
	BorrowerEmail string       `json:"borrowerEmail"`
	BookName      string       `json:"bookName"`
	Author        string       `json:"author"`
	ImageURL      string       `json:"imageUrl,omitempty"`
	// DaysPastDue is only set on entries of the overdue view.
	DaysPastDue *int   `json:"daysPastDue,omitempty"`
	Fine        string `json:"fine,omitempty"`
}

// Admin is the identity returned to the dashboard after a login.
type Admin struct {
	Email string `json:"email"`
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// parseDate reads the date formats the API is known to emit. Zone-less
// values are taken as local time.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

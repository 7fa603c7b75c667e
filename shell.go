package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"library-dashboard/library"

	"github.com/spf13/cobra"
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd.Context(), a)
		},
	}
}

func runShell(ctx context.Context, a *app) error {
	scanner := bufio.NewScanner(os.Stdin)

	session, err := library.RestoreSession(a.db)
	if errors.Is(err, library.ErrNoSession) {
		session, err = shellLogin(ctx, scanner, a)
	}
	if err != nil {
		return err
	}
	manager := a.newManager(session)
	defer func() { manager.Dispose() }()

	fmt.Printf("Welcome to the Library Dashboard, %s!\n", session.User().Email)
	fmt.Println("Available commands:")
	fmt.Println("  Books: list books, popular books, all books, add book, update book, delete book")
	fmt.Println("  Members: list members, add member, delete member")
	fmt.Println("  Librarians: list librarians, add librarian, delete librarian")
	fmt.Println("  Borrowings: list borrowings, active borrowings, overdue, borrowing details, issue book, return book")
	fmt.Println("  System: dashboard, logout, exit")

	for {
		if !manager.Session().Active() {
			fmt.Println("Your session has expired. Please log in again.")
			if session, err = shellLogin(ctx, scanner, a); err != nil {
				return err
			}
			manager.Dispose()
			manager = a.newManager(session)
		}

		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		cmd := strings.TrimSpace(scanner.Text())

		switch cmd {
		case "list books":
			handleListBooks(ctx, scanner, manager)
		case "popular books":
			handlePopularBooks(ctx, manager)
		case "all books":
			handleAllBooks(ctx, manager)
		case "add book":
			handleAddBook(ctx, scanner, manager)
		case "update book":
			handleUpdateBook(ctx, scanner, manager)
		case "delete book":
			handleDeleteBook(ctx, scanner, manager)
		case "list members":
			handleListMembers(ctx, manager)
		case "add member":
			handleAddMember(ctx, scanner, manager)
		case "delete member":
			handleDeleteMember(ctx, scanner, manager)
		case "list librarians":
			handleListLibrarians(ctx, scanner, manager)
		case "add librarian":
			handleAddLibrarian(ctx, scanner, manager)
		case "delete librarian":
			handleDeleteLibrarian(ctx, scanner, manager)
		case "list borrowings":
			handleListBorrowings(ctx, manager, false)
		case "active borrowings":
			handleListBorrowings(ctx, manager, true)
		case "overdue":
			handleOverdue(ctx, scanner, manager)
		case "borrowing details":
			handleBorrowingDetails(ctx, scanner, manager)
		case "issue book":
			handleIssueBook(ctx, scanner, manager)
		case "return book":
			handleReturnBook(ctx, scanner, manager)
		case "dashboard":
			handleDashboard(ctx, manager)
		case "logout":
			if err := manager.Session().Logout(); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			fmt.Println("Logged out. Goodbye!")
			return nil
		case "exit":
			fmt.Println("Goodbye!")
			return nil
		case "":
		default:
			fmt.Println("Unknown command. Type one of the available commands listed above.")
		}
	}
	return nil
}

func shellLogin(ctx context.Context, sc *bufio.Scanner, a *app) (*library.Session, error) {
	for attempt := 0; attempt < 3; attempt++ {
		email, ok := prompt(sc, "Email: ")
		if !ok {
			return nil, fmt.Errorf("login aborted")
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		session, err := library.Login(ctx, a.client, a.db, email, password)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, library.ErrInvalidCredentials) {
			return nil, err
		}
		fmt.Println("Invalid email or password.")
	}
	return nil, library.ErrInvalidCredentials
}

// prompt prints label and reads one trimmed line. ok is false on EOF.
func prompt(sc *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

func promptID(sc *bufio.Scanner, label string) (int64, bool) {
	s, ok := prompt(sc, label)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fmt.Printf("Invalid ID: %s\n", s)
		return 0, false
	}
	return id, true
}

// ------------------ Books ------------------

func handleListBooks(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	genre, ok := prompt(sc, "Genre (Enter for all): ")
	if !ok {
		return
	}
	loaded, err := mgr.LoadBooks(ctx, library.BookFilter{Genre: genre})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if !loaded {
		fmt.Println("(showing the list already loaded for this genre)")
	}
	printBooks(os.Stdout, mgr.Books())
}

func handlePopularBooks(ctx context.Context, mgr *library.LibraryManager) {
	books, err := mgr.FetchPopularBooks(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printBooks(os.Stdout, books)
}

func handleAllBooks(ctx context.Context, mgr *library.LibraryManager) {
	books, err := mgr.FetchAllBooksRaw(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printBooks(os.Stdout, books)
}

func handleAddBook(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	var b library.Book
	var ok bool
	if b.Title, ok = prompt(sc, "Title: "); !ok {
		return
	}
	if b.Author, ok = prompt(sc, "Author: "); !ok {
		return
	}
	if b.Genre, ok = prompt(sc, "Genre: "); !ok {
		return
	}
	if b.ImageURL, ok = prompt(sc, "Cover image URL (optional): "); !ok {
		return
	}
	b.AvailabilityStatus = library.StatusAvailable

	created, err := mgr.AddBook(ctx, b)
	if err != nil {
		fmt.Printf("Error adding book: %v\n", err)
		return
	}
	fmt.Printf("Added book '%s' with ID %d\n", created.Title, created.ID)
}

func handleUpdateBook(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	id, ok := promptID(sc, "Book ID: ")
	if !ok {
		return
	}
	books, err := mgr.FetchAllBooksRaw(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	b, found := findByID(books, id, func(b library.Book) int64 { return b.ID })
	if !found {
		fmt.Printf("Error: Book with ID %d not found\n", id)
		return
	}

	fmt.Println("Press Enter to keep the current value.")
	fields := []struct {
		label string
		dst   *string
	}{
		{"Title", &b.Title},
		{"Author", &b.Author},
		{"Genre", &b.Genre},
		{"Cover image URL", &b.ImageURL},
	}
	for _, f := range fields {
		v, ok := prompt(sc, fmt.Sprintf("%s [%s]: ", f.label, *f.dst))
		if !ok {
			return
		}
		if v != "" {
			*f.dst = v
		}
	}
	status, ok := prompt(sc, fmt.Sprintf("Status [%s]: ", b.AvailabilityStatus))
	if !ok {
		return
	}
	if status != "" {
		b.AvailabilityStatus = library.AvailabilityStatus(status)
	}

	if _, err := mgr.UpdateBook(ctx, id, b); err != nil {
		fmt.Printf("Error updating book: %v\n", err)
		return
	}
	fmt.Printf("Updated book %d\n", id)
}

func handleDeleteBook(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	id, ok := promptID(sc, "Book ID: ")
	if !ok {
		return
	}
	if err := mgr.DeleteBook(ctx, id); err != nil {
		fmt.Printf("Error deleting book: %v\n", err)
		return
	}
	fmt.Printf("Deleted book %d\n", id)
}

// ------------------ Members ------------------

func handleListMembers(ctx context.Context, mgr *library.LibraryManager) {
	members, err := mgr.FetchMembers(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printMembers(os.Stdout, members)
}

func handleAddMember(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	var m library.Member
	var ok bool
	if m.Name, ok = prompt(sc, "Name: "); !ok {
		return
	}
	if m.Email, ok = prompt(sc, "Email: "); !ok {
		return
	}
	if m.PhoneNumber, ok = prompt(sc, "Phone: "); !ok {
		return
	}
	if m.Address, ok = prompt(sc, "Address: "); !ok {
		return
	}
	if m.Name == "" {
		fmt.Println("Error: Name cannot be empty")
		return
	}

	created, err := mgr.AddMember(ctx, m)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Added member '%s' with ID %d\n", created.Name, created.ID)
}

func handleDeleteMember(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	id, ok := promptID(sc, "Member ID: ")
	if !ok {
		return
	}
	if err := mgr.DeleteMember(ctx, id); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Deleted member %d\n", id)
}

// ------------------ Librarians ------------------

func handleListLibrarians(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	librarians, err := mgr.FetchLibrarians(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	search, ok := prompt(sc, "Search (name, email or ID, Enter for all): ")
	if !ok {
		return
	}
	matches := library.FilterLibrarians(librarians, search)

	page := 1
	for {
		p := library.Paginate(matches, page, library.LibrarianPageSize)
		printLibrarians(os.Stdout, p)
		if p.TotalPages <= 1 {
			return
		}
		next, ok := prompt(sc, "Page number (Enter to stop): ")
		if !ok || next == "" {
			return
		}
		n, err := strconv.Atoi(next)
		if err != nil {
			fmt.Printf("Invalid page: %s\n", next)
			return
		}
		page = n
	}
}

func handleAddLibrarian(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	if _, err := mgr.FetchLibrarians(ctx); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	var l library.Librarian
	fields := []struct {
		label string
		dst   *string
	}{
		{"Name", &l.Name},
		{"Email", &l.Email},
		{"Phone", &l.PhoneNumber},
		{"NIC", &l.NIC},
		{"Address", &l.Address},
		{"Join date (YYYY-MM-DD)", &l.JoinDate},
		{"Experience", &l.Experience},
		{"Qualification", &l.Qualification},
	}
	for _, f := range fields {
		v, ok := prompt(sc, f.label+": ")
		if !ok {
			return
		}
		*f.dst = v
	}
	shift, ok := prompt(sc, "Shift (Morning, Evening, Night, Full Time) [Morning]: ")
	if !ok {
		return
	}
	l.Shift = library.Shift(shift)

	created, err := mgr.AddLibrarian(ctx, l)
	var verr library.ValidationError
	if errors.As(err, &verr) {
		for field, msg := range verr {
			fmt.Printf("  %s: %s\n", field, msg)
		}
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Added librarian '%s' with ID %d\n", created.Name, created.ID)
	fmt.Printf("Initial password: %s\n", created.Password)
}

func handleDeleteLibrarian(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	id, ok := promptID(sc, "Librarian ID: ")
	if !ok {
		return
	}
	if err := mgr.DeleteLibrarian(ctx, id); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Deleted librarian %d\n", id)
}

// ------------------ Borrowings ------------------

func handleListBorrowings(ctx context.Context, mgr *library.LibraryManager, activeOnly bool) {
	views, err := mgr.Views(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	items := views.All
	if activeOnly {
		items = views.CurrentlyBorrowed
	}
	printBorrowings(os.Stdout, items, mgr.Now())
}

func handleOverdue(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	views, err := mgr.Views(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	page := 1
	for {
		p := library.Paginate(views.Overdue, page, library.OverduePageSize)
		printOverdue(os.Stdout, p)
		if p.TotalPages <= 1 {
			return
		}
		next, ok := prompt(sc, "Page number (Enter to stop): ")
		if !ok || next == "" {
			return
		}
		n, err := strconv.Atoi(next)
		if err != nil {
			fmt.Printf("Invalid page: %s\n", next)
			return
		}
		page = n
	}
}

func handleBorrowingDetails(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	id, ok := promptID(sc, "Borrowing ID: ")
	if !ok {
		return
	}
	items, err := mgr.FetchBorrowingsEnriched(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	it, found := findByID(items, id, func(it library.EnrichedBorrowing) int64 { return it.ID })
	if !found {
		fmt.Printf("Error: Borrowing with ID %d not found\n", id)
		return
	}
	printBorrowingDetails(os.Stdout, it, mgr.Now())
}

func handleIssueBook(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	bookID, ok := promptID(sc, "Book ID: ")
	if !ok {
		return
	}
	memberID, ok := promptID(sc, "Member ID: ")
	if !ok {
		return
	}
	due, ok := prompt(sc, "Due date (YYYY-MM-DD): ")
	if !ok {
		return
	}

	created, err := mgr.AddBorrowing(ctx, library.Borrowing{
		MemberID:      memberID,
		BookID:        bookID,
		BorrowingDate: mgr.Now().Format("2006-01-02"),
		ReturnDate:    due,
		ReturnStatus:  library.ReturnActive.String(),
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Issued '%s' to %s, due %s\n", created.BookName, created.BorrowerName, created.ReturnDate)
}

func handleReturnBook(ctx context.Context, sc *bufio.Scanner, mgr *library.LibraryManager) {
	id, ok := promptID(sc, "Borrowing ID: ")
	if !ok {
		return
	}
	items, err := mgr.FetchBorrowingsEnriched(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	it, found := findByID(items, id, func(it library.EnrichedBorrowing) int64 { return it.ID })
	if !found {
		fmt.Printf("Error: Borrowing with ID %d not found\n", id)
		return
	}
	if it.Status().IsReturned() {
		fmt.Printf("Borrowing %d is already returned.\n", id)
		return
	}

	b := it.Borrowing
	b.ReturnStatus = library.ReturnReturned.String()
	if _, err := mgr.UpdateBorrowing(ctx, id, b); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if days, overdue := library.OverdueDays(it.Borrowing, mgr.Now()); overdue {
		fmt.Printf("'%s' returned %d days late.\n", it.BookName, days)
		return
	}
	fmt.Printf("'%s' returned by %s.\n", it.BookName, it.BorrowerName)
}

// ------------------ Dashboard ------------------

func handleDashboard(ctx context.Context, mgr *library.LibraryManager) {
	d, err := mgr.Dashboard(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printDashboard(os.Stdout, d, mgr.Now())
}

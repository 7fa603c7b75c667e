package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"library-dashboard/library"

	"github.com/spf13/cobra"
)

// ------------------ Session ------------------

func newLoginCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				fmt.Print("Email: ")
				sc := bufio.NewScanner(os.Stdin)
				if !sc.Scan() {
					return fmt.Errorf("no email given")
				}
				email = strings.TrimSpace(sc.Text())
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			session, err := library.Login(cmd.Context(), a.client, a.db, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", session.User().Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := library.RestoreSession(a.db)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			if err := session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// ------------------ Books ------------------

type bookFlags struct {
	title, author, genre, status, image string
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "book title")
	cmd.Flags().StringVar(&f.author, "author", "", "author")
	cmd.Flags().StringVar(&f.genre, "genre", "", "genre")
	cmd.Flags().StringVar(&f.status, "status", "", "Available, Borrowed or Lost")
	cmd.Flags().StringVar(&f.image, "image", "", "cover image URL")
}

// apply copies the flags the user set onto b.
func (f *bookFlags) apply(cmd *cobra.Command, b *library.Book) {
	set := cmd.Flags().Changed
	if set("title") {
		b.Title = f.title
	}
	if set("author") {
		b.Author = f.author
	}
	if set("genre") {
		b.Genre = f.genre
	}
	if set("status") {
		b.AvailabilityStatus = library.AvailabilityStatus(f.status)
	}
	if set("image") {
		b.ImageURL = f.image
	}
}

func newBooksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "books", Short: "List and edit the catalogue"}

	var genre string
	list := &cobra.Command{
		Use:   "list",
		Short: "List books, one per title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			books, err := mgr.FetchBooks(cmd.Context(), library.BookFilter{Genre: genre})
			if err != nil {
				if err := listFailed(cmd, mgr, err); err != nil {
					return err
				}
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}
	list.Flags().StringVar(&genre, "genre", "", "only this genre (\"All Genres\" for every genre)")

	popular := &cobra.Command{
		Use:   "popular",
		Short: "List popular books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			books, err := mgr.FetchPopularBooks(cmd.Context())
			if err != nil {
				if err := listFailed(cmd, mgr, err); err != nil {
					return err
				}
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}

	all := &cobra.Command{
		Use:   "all",
		Short: "List every copy of every book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			books, err := mgr.FetchAllBooksRaw(cmd.Context())
			if err != nil {
				if err := listFailed(cmd, mgr, err); err != nil {
					return err
				}
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}

	var addFlags bookFlags
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			b := library.Book{AvailabilityStatus: library.StatusAvailable}
			addFlags.apply(cmd, &b)
			if strings.TrimSpace(b.Title) == "" {
				return fmt.Errorf("--title is required")
			}
			created, err := mgr.AddBook(cmd.Context(), b)
			if err != nil {
				return sessionEnded(mgr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added book '%s' with ID %d\n", created.Title, created.ID)
			return nil
		},
	}
	addFlags.register(add)

	var updateFlags bookFlags
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book")
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			books, err := mgr.FetchAllBooksRaw(cmd.Context())
			if err != nil {
				return sessionEnded(mgr, err)
			}
			b, ok := findByID(books, id, func(b library.Book) int64 { return b.ID })
			if !ok {
				return fmt.Errorf("book with ID %d not found", id)
			}
			updateFlags.apply(cmd, &b)
			if _, err := mgr.UpdateBook(cmd.Context(), id, b); err != nil {
				return sessionEnded(mgr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated book %d\n", id)
			return nil
		},
	}
	updateFlags.register(update)

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book")
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			if err := mgr.DeleteBook(cmd.Context(), id); err != nil {
				return sessionEnded(mgr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted book %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, popular, all, add, update, del)
	return cmd
}

// ------------------ Members ------------------

type memberFlags struct {
	name, email, phone, address string
}

func (f *memberFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "member name")
	cmd.Flags().StringVar(&f.email, "email", "", "email")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&f.address, "address", "", "address")
}

func (f *memberFlags) apply(cmd *cobra.Command, m *library.Member) {
	set := cmd.Flags().Changed
	if set("name") {
		m.Name = f.name
	}
	if set("email") {
		m.Email = f.email
	}
	if set("phone") {
		m.PhoneNumber = f.phone
	}
	if set("address") {
		m.Address = f.address
	}
}

func newMembersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "members", Short: "List and edit members"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			members, err := mgr.FetchMembers(cmd.Context())
			if err != nil {
				if err := listFailed(cmd, mgr, err); err != nil {
					return err
				}
			}
			printMembers(cmd.OutOrStdout(), members)
			return nil
		},
	}

	var addFlags memberFlags
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			var m library.Member
			addFlags.apply(cmd, &m)
			if strings.TrimSpace(m.Name) == "" {
				return fmt.Errorf("--name is required")
			}
			created, err := mgr.AddMember(cmd.Context(), m)
			if err != nil {
				return sessionEnded(mgr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added member '%s' with ID %d\n", created.Name, created.ID)
			return nil
		},
	}
	addFlags.register(add)

	var updateFlags memberFlags
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "member")
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			members, err := mgr.FetchMembers(cmd.Context())
			if err != nil {
				return sessionEnded(mgr, err)
			}
			m, ok := findByID(members, id, func(m library.Member) int64 { return m.ID })
			if !ok {
				return fmt.Errorf("member with ID %d not found", id)
			}
			updateFlags.apply(cmd, &m)
			if _, err := mgr.UpdateMember(cmd.Context(), id, m); err != nil {
				return sessionEnded(mgr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated member %d\n", id)
			return nil
		},
	}
	updateFlags.register(update)

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "member")
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			if err := mgr.DeleteMember(cmd.Context(), id); err != nil {
				return sessionEnded(mgr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted member %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, add, update, del)
	return cmd
}

// ------------------ Librarians ------------------

type librarianFlags struct {
	name, email, phone, nic, address    string
	shift, status, experience, joinDate string
	qualification, password             string
}

func (f *librarianFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "full name")
	fl.StringVar(&f.email, "email", "", "email")
	fl.StringVar(&f.phone, "phone", "", "phone number")
	fl.StringVar(&f.nic, "nic", "", "national identity number")
	fl.StringVar(&f.address, "address", "", "address")
	fl.StringVar(&f.shift, "shift", "", "Morning, Evening, Night or Full Time")
	fl.StringVar(&f.status, "status", "", "Active, On Leave or Inactive")
	fl.StringVar(&f.experience, "experience", "", "years of experience")
	fl.StringVar(&f.joinDate, "join-date", "", "join date (YYYY-MM-DD)")
	fl.StringVar(&f.qualification, "qualification", "", "qualification")
	fl.StringVar(&f.password, "password", "", "initial password, generated when empty")
}

func (f *librarianFlags) apply(cmd *cobra.Command, l *library.Librarian) {
	set := cmd.Flags().Changed
	for flag, apply := range map[string]func(){
		"name":          func() { l.Name = f.name },
		"email":         func() { l.Email = f.email },
		"phone":         func() { l.PhoneNumber = f.phone },
		"nic":           func() { l.NIC = f.nic },
		"address":       func() { l.Address = f.address },
		"shift":         func() { l.Shift = library.Shift(f.shift) },
		"status":        func() { l.Status = library.LibrarianStatus(f.status) },
		"experience":    func() { l.Experience = f.experience },
		"join-date":     func() { l.JoinDate = f.joinDate },
		"qualification": func() { l.Qualification = f.qualification },
		"password":      func() { l.Password = f.password },
	} {
		if set(flag) {
			apply()
		}
	}
}

func newLibrariansCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "librarians", Short: "Manage librarian accounts"}

	var (
		search string
		page   int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List librarians",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			librarians, err := mgr.FetchLibrarians(cmd.Context())
			if err != nil {
				if err := listFailed(cmd, mgr, err); err != nil {
					return err
				}
			}
			matches := library.FilterLibrarians(librarians, search)
			printLibrarians(cmd.OutOrStdout(), library.Paginate(matches, page, library.LibrarianPageSize))
			return nil
		},
	}
	list.Flags().StringVar(&search, "search", "", "match name, email or ID")
	list.Flags().IntVar(&page, "page", 1, "page to show")

	var addFlags librarianFlags
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a librarian account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			// Duplicate emails are checked against the current list.
			if _, err := mgr.FetchLibrarians(cmd.Context()); err != nil {
				return sessionEnded(mgr, err)
			}
			var l library.Librarian
			addFlags.apply(cmd, &l)
			created, err := mgr.AddLibrarian(cmd.Context(), l)
			if err != nil {
				return sessionEnded(mgr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added librarian '%s' with ID %d\n", created.Name, created.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Initial password: %s\n", created.Password)
			return nil
		},
	}
	addFlags.register(add)

	var updateFlags librarianFlags
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a librarian",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "librarian")
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			librarians, err := mgr.FetchLibrarians(cmd.Context())
			if err != nil {
				return sessionEnded(mgr, err)
			}
			l, ok := findByID(librarians, id, func(l library.Librarian) int64 { return l.ID })
			if !ok {
				return fmt.Errorf("librarian with ID %d not found", id)
			}
			updateFlags.apply(cmd, &l)
			if _, err := mgr.UpdateLibrarian(cmd.Context(), id, l); err != nil {
				return sessionEnded(mgr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated librarian %d\n", id)
			return nil
		},
	}
	updateFlags.register(update)

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a librarian account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "librarian")
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			if err := mgr.DeleteLibrarian(cmd.Context(), id); err != nil {
				return sessionEnded(mgr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted librarian %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, add, update, del)
	return cmd
}

// ------------------ Borrowings ------------------

func newBorrowingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "borrowings", Short: "Track issued books"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all borrowings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			views, err := mgr.Views(cmd.Context())
			if err != nil {
				if err := listFailed(cmd, mgr, err); err != nil {
					return err
				}
			}
			printBorrowings(cmd.OutOrStdout(), views.All, mgr.Now())
			return nil
		},
	}

	active := &cobra.Command{
		Use:   "active",
		Short: "List books currently out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			views, err := mgr.Views(cmd.Context())
			if err != nil {
				if err := listFailed(cmd, mgr, err); err != nil {
					return err
				}
			}
			printBorrowings(cmd.OutOrStdout(), views.CurrentlyBorrowed, mgr.Now())
			return nil
		},
	}

	var page int
	overdue := &cobra.Command{
		Use:   "overdue",
		Short: "List overdue books with fines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			views, err := mgr.Views(cmd.Context())
			if err != nil {
				if err := listFailed(cmd, mgr, err); err != nil {
					return err
				}
			}
			printOverdue(cmd.OutOrStdout(), library.Paginate(views.Overdue, page, library.OverduePageSize))
			return nil
		},
	}
	overdue.Flags().IntVar(&page, "page", 1, "page to show")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one borrowing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "borrowing")
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			items, err := mgr.FetchBorrowingsEnriched(cmd.Context())
			if err != nil {
				return sessionEnded(mgr, err)
			}
			it, ok := findByID(items, id, func(it library.EnrichedBorrowing) int64 { return it.ID })
			if !ok {
				return fmt.Errorf("borrowing with ID %d not found", id)
			}
			printBorrowingDetails(cmd.OutOrStdout(), it, mgr.Now())
			return nil
		},
	}

	var (
		memberID, bookID int64
		borrowed, due    string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Issue a book to a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			if borrowed == "" {
				borrowed = mgr.Now().Format("2006-01-02")
			}
			b := library.Borrowing{
				MemberID:      memberID,
				BookID:        bookID,
				BorrowingDate: borrowed,
				ReturnDate:    due,
				ReturnStatus:  library.ReturnActive.String(),
			}
			created, err := mgr.AddBorrowing(cmd.Context(), b)
			if err != nil {
				return sessionEnded(mgr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Issued '%s' to %s, due %s\n", created.BookName, created.BorrowerName, created.ReturnDate)
			return nil
		},
	}
	add.Flags().Int64Var(&memberID, "member", 0, "member ID")
	add.Flags().Int64Var(&bookID, "book", 0, "book ID")
	add.Flags().StringVar(&borrowed, "borrowed", "", "borrowing date (YYYY-MM-DD), today when empty")
	add.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	_ = add.MarkFlagRequired("member")
	_ = add.MarkFlagRequired("book")
	_ = add.MarkFlagRequired("due")

	var status, newDue string
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change the status or due date of a borrowing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "borrowing")
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			items, err := mgr.FetchBorrowingsEnriched(cmd.Context())
			if err != nil {
				return sessionEnded(mgr, err)
			}
			it, ok := findByID(items, id, func(it library.EnrichedBorrowing) int64 { return it.ID })
			if !ok {
				return fmt.Errorf("borrowing with ID %d not found", id)
			}
			b := it.Borrowing
			if cmd.Flags().Changed("status") {
				if library.ParseReturnStatus(status) == library.ReturnUnknown {
					return fmt.Errorf("unknown status %q", status)
				}
				b.ReturnStatus = status
			}
			if cmd.Flags().Changed("due") {
				b.ReturnDate = newDue
			}
			updated, err := mgr.UpdateBorrowing(cmd.Context(), id, b)
			if err != nil {
				return sessionEnded(mgr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Borrowing %d is now %s\n", id, updated.Status())
			return nil
		},
	}
	update.Flags().StringVar(&status, "status", "", "Active, Overdue, Returned or Lost")
	update.Flags().StringVar(&newDue, "due", "", "new due date (YYYY-MM-DD)")

	cmd.AddCommand(list, active, overdue, show, add, update)
	return cmd
}

// ------------------ Dashboard ------------------

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show library statistics and overdue books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			d, err := mgr.Dashboard(cmd.Context())
			if err != nil {
				return sessionEnded(mgr, err)
			}
			printDashboard(cmd.OutOrStdout(), d, mgr.Now())
			return nil
		},
	}
}

// ------------------ Utilities ------------------

func parseID(s, kind string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID: %s", kind, s)
	}
	return id, nil
}

func findByID[T any](items []T, id int64, idOf func(T) int64) (T, bool) {
	for _, it := range items {
		if idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

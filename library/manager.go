package library

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// AllGenres is the genre choice that disables filtering.
const AllGenres = "All Genres"

// BookFilter narrows a book listing.
type BookFilter struct {
	Genre string
}

// effective is the genre actually sent to the API.
func (f BookFilter) effective() string {
	g := strings.TrimSpace(f.Genre)
	if strings.EqualFold(g, AllGenres) {
		return ""
	}
	return g
}

// LibraryManager is the data access layer of the dashboard. It reads
// through the API, keeps the last fetched collections in memory and
// applies successful writes to them locally.
//
// Reads never abort a view: on failure they log, return an empty
// collection and hand the error back for callers that care. Writes
// always return their error and leave the cache untouched on failure.
type LibraryManager struct {
	api        API
	session    *Session
	enricher   *Enricher
	logger     *slog.Logger
	now        func() time.Time
	finePerDay float64
	policy     LookupPolicy

	disposed atomic.Bool

	mu         sync.RWMutex
	books      []Book
	members    []Member
	librarians []Librarian
	borrowings []EnrichedBorrowing
	lastFilter *string
}

// ManagerOption configures a LibraryManager.
type ManagerOption func(*LibraryManager)

func WithLogger(l *slog.Logger) ManagerOption {
	return func(lm *LibraryManager) { lm.logger = l }
}

// WithClock replaces time.Now for overdue computations.
func WithClock(now func() time.Time) ManagerOption {
	return func(lm *LibraryManager) { lm.now = now }
}

func WithFinePerDay(perDay float64) ManagerOption {
	return func(lm *LibraryManager) { lm.finePerDay = perDay }
}

func WithLookupPolicy(p LookupPolicy) ManagerOption {
	return func(lm *LibraryManager) { lm.policy = p }
}

// NewLibraryManager creates a manager acting on behalf of session. Every
// operation fails with ErrNoSession once the session is no longer active.
func NewLibraryManager(api API, session *Session, opts ...ManagerOption) *LibraryManager {
	lm := &LibraryManager{
		api:        api,
		session:    session,
		logger:     discardLogger(),
		now:        time.Now,
		finePerDay: DefaultFinePerDay,
		policy:     DefaultLookupPolicy(),
	}
	for _, opt := range opts {
		opt(lm)
	}
	lm.enricher = NewEnricher(api, lm.policy, lm.logger)
	return lm
}

// Session returns the session the manager acts for.
func (lm *LibraryManager) Session() *Session { return lm.session }

// Dispose detaches the manager from its view. Fetches still running
// complete, but their results are no longer stored.
func (lm *LibraryManager) Dispose() { lm.disposed.Store(true) }

func (lm *LibraryManager) authorized() error {
	if !lm.session.Active() {
		return ErrNoSession
	}
	return nil
}

// observe inspects a failed call. A rejected session is ended so the
// caller falls back to the login flow.
func (lm *LibraryManager) observe(ctx context.Context, op string, err error) {
	if errors.Is(err, ErrUnauthorized) {
		lm.logger.WarnContext(ctx, "session rejected by API", "op", op)
		lm.session.Invalidate()
	}
}

// readFailed logs a swallowed read failure.
func (lm *LibraryManager) readFailed(ctx context.Context, op string, err error) {
	lm.observe(ctx, op, err)
	lm.logger.WarnContext(ctx, "read failed", "op", op, "error", err)
}

// update applies fn to the cache unless the manager was disposed.
func (lm *LibraryManager) update(fn func()) {
	if lm.disposed.Load() {
		return
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()
	fn()
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

// FetchBooks lists the catalogue for filter with repeated titles removed.
func (lm *LibraryManager) FetchBooks(ctx context.Context, filter BookFilter) ([]Book, error) {
	if err := lm.authorized(); err != nil {
		return []Book{}, err
	}
	raw, err := lm.api.ListBooks(ctx, filter.effective())
	if err != nil {
		lm.readFailed(ctx, "list books", err)
		return []Book{}, err
	}
	books := UniqueByTitle(raw)
	lm.update(func() { lm.books = books })
	return slices.Clone(books), nil
}

// LoadBooks fetches books unless a fetch for the same effective filter
// was already started, in which case it returns false without a request.
// A call refused for want of a session does not count as started.
func (lm *LibraryManager) LoadBooks(ctx context.Context, filter BookFilter) (bool, error) {
	if err := lm.authorized(); err != nil {
		return false, err
	}
	genre := filter.effective()

	lm.mu.Lock()
	if lm.lastFilter != nil && *lm.lastFilter == genre {
		lm.mu.Unlock()
		return false, nil
	}
	lm.lastFilter = &genre
	lm.mu.Unlock()

	_, err := lm.FetchBooks(ctx, filter)
	return true, err
}

// FetchPopularBooks lists the popular books with repeated titles removed.
func (lm *LibraryManager) FetchPopularBooks(ctx context.Context) ([]Book, error) {
	if err := lm.authorized(); err != nil {
		return []Book{}, err
	}
	raw, err := lm.api.PopularBooks(ctx)
	if err != nil {
		lm.readFailed(ctx, "list popular books", err)
		return []Book{}, err
	}
	return UniqueByTitle(raw), nil
}

// FetchAllBooksRaw lists every book without filtering or title
// de-duplication, so copies of one title are all present.
func (lm *LibraryManager) FetchAllBooksRaw(ctx context.Context) ([]Book, error) {
	if err := lm.authorized(); err != nil {
		return []Book{}, err
	}
	raw, err := lm.api.ListBooks(ctx, "")
	if err != nil {
		lm.readFailed(ctx, "list all books", err)
		return []Book{}, err
	}
	if raw == nil {
		raw = []Book{}
	}
	return raw, nil
}

// Books returns the cached book list.
func (lm *LibraryManager) Books() []Book {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return slices.Clone(lm.books)
}

func (lm *LibraryManager) AddBook(ctx context.Context, b Book) (Book, error) {
	if err := lm.authorized(); err != nil {
		return Book{}, err
	}
	created, err := lm.api.AddBook(ctx, b)
	if err != nil {
		lm.observe(ctx, "add book", err)
		return Book{}, err
	}
	if created != nil {
		b = *created
	}
	lm.update(func() { lm.books = append(lm.books, b) })
	lm.logger.InfoContext(ctx, "book added", "id", b.ID, "title", b.Title)
	return b, nil
}

func (lm *LibraryManager) UpdateBook(ctx context.Context, id int64, b Book) (Book, error) {
	if err := lm.authorized(); err != nil {
		return Book{}, err
	}
	updated, err := lm.api.UpdateBook(ctx, id, b)
	if err != nil {
		lm.observe(ctx, "update book", err)
		return Book{}, err
	}
	if updated != nil {
		b = *updated
	}
	b.ID = id
	lm.update(func() { replaceByID(lm.books, b, func(x Book) int64 { return x.ID }) })
	lm.logger.InfoContext(ctx, "book updated", "id", id)
	return b, nil
}

func (lm *LibraryManager) DeleteBook(ctx context.Context, id int64) error {
	if err := lm.authorized(); err != nil {
		return err
	}
	if err := lm.api.DeleteBook(ctx, id); err != nil {
		lm.observe(ctx, "delete book", err)
		return err
	}
	lm.update(func() { lm.books = removeByID(lm.books, id, func(x Book) int64 { return x.ID }) })
	lm.logger.InfoContext(ctx, "book deleted", "id", id)
	return nil
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

func (lm *LibraryManager) FetchMembers(ctx context.Context) ([]Member, error) {
	if err := lm.authorized(); err != nil {
		return []Member{}, err
	}
	members, err := lm.api.ListMembers(ctx)
	if err != nil {
		lm.readFailed(ctx, "list members", err)
		return []Member{}, err
	}
	if members == nil {
		members = []Member{}
	}
	lm.update(func() { lm.members = members })
	return slices.Clone(members), nil
}

// Members returns the cached member list.
func (lm *LibraryManager) Members() []Member {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return slices.Clone(lm.members)
}

func (lm *LibraryManager) AddMember(ctx context.Context, m Member) (Member, error) {
	if err := lm.authorized(); err != nil {
		return Member{}, err
	}
	created, err := lm.api.AddMember(ctx, m)
	if err != nil {
		lm.observe(ctx, "add member", err)
		return Member{}, err
	}
	if created != nil {
		m = *created
	}
	lm.update(func() { lm.members = append(lm.members, m) })
	lm.logger.InfoContext(ctx, "member added", "id", m.ID)
	return m, nil
}

func (lm *LibraryManager) UpdateMember(ctx context.Context, id int64, m Member) (Member, error) {
	if err := lm.authorized(); err != nil {
		return Member{}, err
	}
	updated, err := lm.api.UpdateMember(ctx, id, m)
	if err != nil {
		lm.observe(ctx, "update member", err)
		return Member{}, err
	}
	if updated != nil {
		m = *updated
	}
	m.ID = id
	lm.update(func() { replaceByID(lm.members, m, func(x Member) int64 { return x.ID }) })
	lm.logger.InfoContext(ctx, "member updated", "id", id)
	return m, nil
}

func (lm *LibraryManager) DeleteMember(ctx context.Context, id int64) error {
	if err := lm.authorized(); err != nil {
		return err
	}
	if err := lm.api.DeleteMember(ctx, id); err != nil {
		lm.observe(ctx, "delete member", err)
		return err
	}
	lm.update(func() { lm.members = removeByID(lm.members, id, func(x Member) int64 { return x.ID }) })
	lm.logger.InfoContext(ctx, "member deleted", "id", id)
	return nil
}

// ---------------------------------------------------------------------------
// Librarians
// ---------------------------------------------------------------------------

func (lm *LibraryManager) FetchLibrarians(ctx context.Context) ([]Librarian, error) {
	if err := lm.authorized(); err != nil {
		return []Librarian{}, err
	}
	librarians, err := lm.api.ListLibrarians(ctx)
	if err != nil {
		lm.readFailed(ctx, "list librarians", err)
		return []Librarian{}, err
	}
	if librarians == nil {
		librarians = []Librarian{}
	}
	lm.update(func() { lm.librarians = librarians })
	return slices.Clone(librarians), nil
}

// Librarians returns the cached librarian list.
func (lm *LibraryManager) Librarians() []Librarian {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return slices.Clone(lm.librarians)
}

// AddLibrarian validates l against the cached librarians, fills in the
// defaults of a new account and creates it. A missing password is
// generated; the returned librarian carries it so it can be handed over.
func (lm *LibraryManager) AddLibrarian(ctx context.Context, l Librarian) (Librarian, error) {
	if err := lm.authorized(); err != nil {
		return Librarian{}, err
	}
	l = WithLibrarianDefaults(l)
	if err := ValidateLibrarian(l, lm.Librarians(), true); err != nil {
		return Librarian{}, err
	}
	if l.Password == "" {
		pw, err := GeneratePassword()
		if err != nil {
			return Librarian{}, err
		}
		l.Password = pw
	}

	created, err := lm.api.AddLibrarian(ctx, l)
	if err != nil {
		lm.observe(ctx, "add librarian", err)
		return Librarian{}, err
	}
	password := l.Password
	if created != nil {
		l = *created
	}
	if l.Password == "" {
		l.Password = password
	}

	cached := l
	cached.Password = ""
	lm.update(func() { lm.librarians = append(lm.librarians, cached) })
	lm.logger.InfoContext(ctx, "librarian added", "id", l.ID)
	return l, nil
}

func (lm *LibraryManager) UpdateLibrarian(ctx context.Context, id int64, l Librarian) (Librarian, error) {
	if err := lm.authorized(); err != nil {
		return Librarian{}, err
	}
	if err := ValidateLibrarian(l, nil, false); err != nil {
		return Librarian{}, err
	}
	updated, err := lm.api.UpdateLibrarian(ctx, id, l)
	if err != nil {
		lm.observe(ctx, "update librarian", err)
		return Librarian{}, err
	}
	if updated != nil {
		l = *updated
	}
	l.ID = id
	lm.update(func() { replaceByID(lm.librarians, l, func(x Librarian) int64 { return x.ID }) })
	lm.logger.InfoContext(ctx, "librarian updated", "id", id)
	return l, nil
}

func (lm *LibraryManager) DeleteLibrarian(ctx context.Context, id int64) error {
	if err := lm.authorized(); err != nil {
		return err
	}
	if err := lm.api.DeleteLibrarian(ctx, id); err != nil {
		lm.observe(ctx, "delete librarian", err)
		return err
	}
	lm.update(func() { lm.librarians = removeByID(lm.librarians, id, func(x Librarian) int64 { return x.ID }) })
	lm.logger.InfoContext(ctx, "librarian deleted", "id", id)
	return nil
}

// ---------------------------------------------------------------------------
// Borrowings
// ---------------------------------------------------------------------------

// FetchBorrowingsEnriched lists all borrowings joined with their member
// and book.
func (lm *LibraryManager) FetchBorrowingsEnriched(ctx context.Context) ([]EnrichedBorrowing, error) {
	if err := lm.authorized(); err != nil {
		return []EnrichedBorrowing{}, err
	}
	raw, err := lm.api.ListBorrowings(ctx)
	if err != nil {
		lm.readFailed(ctx, "list borrowings", err)
		return []EnrichedBorrowing{}, err
	}
	enriched := lm.enricher.Enrich(ctx, raw)
	lm.update(func() { lm.borrowings = enriched })
	return slices.Clone(enriched), nil
}

// Borrowings returns the cached enriched borrowings.
func (lm *LibraryManager) Borrowings() []EnrichedBorrowing {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return slices.Clone(lm.borrowings)
}

// Views fetches the borrowings and classifies them as of the manager's
// clock.
func (lm *LibraryManager) Views(ctx context.Context) (Views, error) {
	items, err := lm.FetchBorrowingsEnriched(ctx)
	return Classify(items, lm.now(), lm.finePerDay), err
}

// Now is the manager's current time.
func (lm *LibraryManager) Now() time.Time { return lm.now() }

func (lm *LibraryManager) AddBorrowing(ctx context.Context, b Borrowing) (EnrichedBorrowing, error) {
	if err := lm.authorized(); err != nil {
		return EnrichedBorrowing{}, err
	}
	created, err := lm.api.AddBorrowing(ctx, b)
	if err != nil {
		lm.observe(ctx, "add borrowing", err)
		return EnrichedBorrowing{}, err
	}
	if created != nil {
		b = *created
	}
	eb := lm.enricher.Enrich(ctx, []Borrowing{b})[0]
	lm.update(func() { lm.borrowings = append(lm.borrowings, eb) })
	lm.logger.InfoContext(ctx, "borrowing added", "id", b.ID, "member", b.MemberID, "book", b.BookID)
	return eb, nil
}

func (lm *LibraryManager) UpdateBorrowing(ctx context.Context, id int64, b Borrowing) (EnrichedBorrowing, error) {
	if err := lm.authorized(); err != nil {
		return EnrichedBorrowing{}, err
	}
	updated, err := lm.api.UpdateBorrowing(ctx, id, b)
	if err != nil {
		lm.observe(ctx, "update borrowing", err)
		return EnrichedBorrowing{}, err
	}
	if updated != nil {
		b = *updated
	}
	b.ID = id
	eb := lm.enricher.Enrich(ctx, []Borrowing{b})[0]
	lm.update(func() {
		replaceByID(lm.borrowings, eb, func(x EnrichedBorrowing) int64 { return x.ID })
	})
	lm.logger.InfoContext(ctx, "borrowing updated", "id", id, "status", eb.Status())
	return eb, nil
}

// ------------------ Utilities ------------------

func replaceByID[T any](items []T, v T, id func(T) int64) {
	want := id(v)
	for i := range items {
		if id(items[i]) == want {
			items[i] = v
		}
	}
}

func removeByID[T any](items []T, want int64, id func(T) int64) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if id(it) != want {
			out = append(out, it)
		}
	}
	return out
}

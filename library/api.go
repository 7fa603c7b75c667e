package library

import "context"

// API is the remote library service. Client implements it over HTTP;
// tests substitute fakes.
//
// Write methods return the entity echoed by the server, or nil when the
// server answered without a body.
type API interface {
	Login(ctx context.Context, email, password string) (bool, error)

	ListBooks(ctx context.Context, genre string) ([]Book, error)
	PopularBooks(ctx context.Context) ([]Book, error)
	GetBook(ctx context.Context, id int64) (*Book, error)
	AddBook(ctx context.Context, b Book) (*Book, error)
	UpdateBook(ctx context.Context, id int64, b Book) (*Book, error)
	DeleteBook(ctx context.Context, id int64) error

	ListMembers(ctx context.Context) ([]Member, error)
	GetMember(ctx context.Context, id int64) (*Member, error)
	AddMember(ctx context.Context, m Member) (*Member, error)
	UpdateMember(ctx context.Context, id int64, m Member) (*Member, error)
	DeleteMember(ctx context.Context, id int64) error

	ListLibrarians(ctx context.Context) ([]Librarian, error)
	AddLibrarian(ctx context.Context, l Librarian) (*Librarian, error)
	UpdateLibrarian(ctx context.Context, id int64, l Librarian) (*Librarian, error)
	DeleteLibrarian(ctx context.Context, id int64) error

	ListBorrowings(ctx context.Context) ([]Borrowing, error)
	AddBorrowing(ctx context.Context, b Borrowing) (*Borrowing, error)
	UpdateBorrowing(ctx context.Context, id int64, b Borrowing) (*Borrowing, error)
}

package library

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockAPI struct {
	mock.Mock
}

var _ API = (*mockAPI)(nil)

// ptr returns the first result as *T, allowing an untyped nil in Return.
func ptr[T any](args mock.Arguments) *T {
	if v, ok := args.Get(0).(*T); ok {
		return v
	}
	return nil
}

func (m *mockAPI) Login(ctx context.Context, email, password string) (bool, error) {
	args := m.Called(ctx, email, password)
	return args.Bool(0), args.Error(1)
}

func (m *mockAPI) ListBooks(ctx context.Context, genre string) ([]Book, error) {
	args := m.Called(ctx, genre)
	books, _ := args.Get(0).([]Book)
	return books, args.Error(1)
}

func (m *mockAPI) PopularBooks(ctx context.Context) ([]Book, error) {
	args := m.Called(ctx)
	books, _ := args.Get(0).([]Book)
	return books, args.Error(1)
}

func (m *mockAPI) GetBook(ctx context.Context, id int64) (*Book, error) {
	args := m.Called(ctx, id)
	return ptr[Book](args), args.Error(1)
}

func (m *mockAPI) AddBook(ctx context.Context, b Book) (*Book, error) {
	args := m.Called(ctx, b)
	return ptr[Book](args), args.Error(1)
}

func (m *mockAPI) UpdateBook(ctx context.Context, id int64, b Book) (*Book, error) {
	args := m.Called(ctx, id, b)
	return ptr[Book](args), args.Error(1)
}

func (m *mockAPI) DeleteBook(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAPI) ListMembers(ctx context.Context) ([]Member, error) {
	args := m.Called(ctx)
	members, _ := args.Get(0).([]Member)
	return members, args.Error(1)
}

func (m *mockAPI) GetMember(ctx context.Context, id int64) (*Member, error) {
	args := m.Called(ctx, id)
	return ptr[Member](args), args.Error(1)
}

func (m *mockAPI) AddMember(ctx context.Context, mem Member) (*Member, error) {
	args := m.Called(ctx, mem)
	return ptr[Member](args), args.Error(1)
}

func (m *mockAPI) UpdateMember(ctx context.Context, id int64, mem Member) (*Member, error) {
	args := m.Called(ctx, id, mem)
	return ptr[Member](args), args.Error(1)
}

func (m *mockAPI) DeleteMember(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAPI) ListLibrarians(ctx context.Context) ([]Librarian, error) {
	args := m.Called(ctx)
	librarians, _ := args.Get(0).([]Librarian)
	return librarians, args.Error(1)
}

func (m *mockAPI) AddLibrarian(ctx context.Context, l Librarian) (*Librarian, error) {
	args := m.Called(ctx, l)
	return ptr[Librarian](args), args.Error(1)
}

func (m *mockAPI) UpdateLibrarian(ctx context.Context, id int64, l Librarian) (*Librarian, error) {
	args := m.Called(ctx, id, l)
	return ptr[Librarian](args), args.Error(1)
}

func (m *mockAPI) DeleteLibrarian(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAPI) ListBorrowings(ctx context.Context) ([]Borrowing, error) {
	args := m.Called(ctx)
	borrowings, _ := args.Get(0).([]Borrowing)
	return borrowings, args.Error(1)
}

func (m *mockAPI) AddBorrowing(ctx context.Context, b Borrowing) (*Borrowing, error) {
	args := m.Called(ctx, b)
	return ptr[Borrowing](args), args.Error(1)
}

func (m *mockAPI) UpdateBorrowing(ctx context.Context, id int64, b Borrowing) (*Borrowing, error) {
	args := m.Called(ctx, id, b)
	return ptr[Borrowing](args), args.Error(1)
}

// Package repository defines data access interfaces for LendingDesk.
// These interfaces abstract database operations, allowing for different
// implementations (SQLite, in-memory for testing) while keeping the
// service layer clean.
package repository

import (
	"context"
	"time"

	"github.com/calliard/lendingdesk/internal/domain"
)

// =============================================================================
// Book Repository
// =============================================================================

// BookRepository defines the interface for catalog data access.
type BookRepository interface {
	// Create inserts a new book.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book by ID.
	GetByID(ctx context.Context, id string) (*domain.Book, error)

	// Update updates an existing book. The ID is immutable.
	Update(ctx context.Context, book *domain.Book) error

	// AdjustCopies atomically adds delta to the book's available copies.
	// Fails with domain.ErrNoCopiesAvailable if the result would be negative.
	AdjustCopies(ctx context.Context, id string, delta int) error

	// Delete deletes a book by ID.
	Delete(ctx context.Context, id string) error

	// List returns the whole catalog ordered by ID.
	List(ctx context.Context) ([]*domain.Book, error)

	// Search returns books whose title, author, or genre contains the
	// query, case-insensitively.
	Search(ctx context.Context, query string) ([]*domain.Book, error)

	// ExistsByID checks whether a book with the given ID exists.
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// Update updates an existing user. The ID is immutable.
	Update(ctx context.Context, user *domain.User) error

	// Delete deletes a user by ID.
	Delete(ctx context.Context, id string) error

	// List returns all users ordered by ID.
	List(ctx context.Context) ([]*domain.User, error)
}

// =============================================================================
// Loan Repository
// =============================================================================

// LoanFilter selects active loans. Zero values match everything; a
// non-empty BookID or UserID narrows the match, and a non-zero IssuedAt
// selects one specific loan of a (book, borrower) pair. MatchGuest makes
// an empty UserID mean "guest loans only" instead of "any borrower".
type LoanFilter struct {
	BookID     string
	UserID     string
	MatchGuest bool
	IssuedAt   time.Time
}

// LoanRepository defines the interface for loan data access.
// Loans have exactly two lifecycle operations: Create at issue and
// Delete at return.
type LoanRepository interface {
	// Create inserts a new loan and fills in its storage ID.
	Create(ctx context.Context, loan *domain.Loan) error

	// Find returns active loans matching the filter, oldest first.
	Find(ctx context.Context, filter LoanFilter) ([]*domain.Loan, error)

	// Delete removes the loan with the given storage ID.
	Delete(ctx context.Context, storeID int64) error

	// CountByBook returns the number of active loans referencing a book.
	CountByBook(ctx context.Context, bookID string) (int64, error)

	// CountByUser returns the number of active loans held by a user.
	CountByUser(ctx context.Context, userID string) (int64, error)

	// List returns every active loan, oldest first.
	List(ctx context.Context) ([]*domain.Loan, error)
}

// =============================================================================
// Sequence Repository
// =============================================================================

// SequenceRepository hands out strictly monotonic counters for ID
// generation. Counters only ever advance, so generated IDs are never
// reused even after deletions.
type SequenceRepository interface {
	// Next returns the current value of the named counter and advances it.
	// The first call for a name returns 0.
	Next(ctx context.Context, name string) (int64, error)
}

// Well-known sequence names.
const (
	SeqBooks = "books"
	SeqUsers = "users"
)

// =============================================================================
// Transaction Support
// =============================================================================

// TxManager runs a function inside a storage transaction so that
// multi-step mutations (copy-count adjustment plus loan insert/delete)
// are atomic to every observer.
type TxManager interface {
	// WithTx executes the given function within a transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

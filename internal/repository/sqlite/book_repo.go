package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calliard/lendingdesk/internal/domain"
	"github.com/calliard/lendingdesk/internal/repository"
)

// bookRepository implements repository.BookRepository for SQLite.
type bookRepository struct {
	db *DB
}

// NewBookRepository creates a new SQLite book repository.
func NewBookRepository(db *DB) repository.BookRepository {
	return &bookRepository{db: db}
}

const bookColumns = `id, title, author, publisher, year, available_copies, genre, created_at, updated_at`

// Create inserts a new book.
func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (id, title, author, publisher, year, available_copies, genre, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.Publisher,
		book.Year,
		book.AvailableCopies,
		book.Genre,
		book.CreatedAt.Format(time.RFC3339),
		book.UpdatedAt.Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateBookID, book.ID)
		}
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

// GetByID retrieves a book by ID.
func (r *bookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ?`

	book, err := scanBook(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by ID: %w", err)
	}

	return book, nil
}

// Update updates an existing book. The ID is immutable.
func (r *bookRepository) Update(ctx context.Context, book *domain.Book) error {
	book.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE books
		SET title = ?, author = ?, publisher = ?, year = ?, available_copies = ?, genre = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		book.Title,
		book.Author,
		book.Publisher,
		book.Year,
		book.AvailableCopies,
		book.Genre,
		book.UpdatedAt.Format(time.RFC3339),
		book.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

// AdjustCopies atomically adds delta to the book's available copies.
// The CHECK constraint on available_copies makes a negative result
// impossible even under a racing caller.
func (r *bookRepository) AdjustCopies(ctx context.Context, id string, delta int) error {
	query := `
		UPDATE books
		SET available_copies = available_copies + ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, delta, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrNoCopiesAvailable, id)
		}
		return fmt.Errorf("failed to adjust copies: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

// Delete deletes a book by ID.
func (r *bookRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

// List returns the whole catalog ordered by ID.
func (r *bookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}

// Search returns books whose title, author, or genre contains the query,
// case-insensitively.
func (r *bookRepository) Search(ctx context.Context, query string) ([]*domain.Book, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	stmt := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(genre) LIKE ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, stmt, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}

// ExistsByID checks whether a book with the given ID exists.
func (r *bookRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check book existence: %w", err)
	}
	return count > 0, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBook reads one book row.
func scanBook(row rowScanner) (*domain.Book, error) {
	book := &domain.Book{}
	var createdAt, updatedAt string

	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Publisher,
		&book.Year,
		&book.AvailableCopies,
		&book.Genre,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	book.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	book.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return book, nil
}

// Ensure bookRepository implements repository.BookRepository.
var _ repository.BookRepository = (*bookRepository)(nil)

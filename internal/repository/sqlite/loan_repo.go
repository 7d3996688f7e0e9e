package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/calliard/lendingdesk/internal/domain"
	"github.com/calliard/lendingdesk/internal/repository"
)

// loanTimeLayout is the storage format for issue timestamps. Second
// precision, matching the format legacy data was recorded in.
const loanTimeLayout = "2006-01-02 15:04:05"

// loanRepository implements repository.LoanRepository for SQLite.
type loanRepository struct {
	db *DB
}

// NewLoanRepository creates a new SQLite loan repository.
func NewLoanRepository(db *DB) repository.LoanRepository {
	return &loanRepository{db: db}
}

// Create inserts a new loan and fills in its storage ID.
func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (book_id, user_id, borrower_name, borrower_contact, issued_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		loan.BookID,
		loan.UserID,
		loan.BorrowerName,
		loan.BorrowerContact,
		loan.IssuedAt.UTC().Format(loanTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	loan.StoreID = id

	return nil
}

// Find returns active loans matching the filter, oldest first.
func (r *loanRepository) Find(ctx context.Context, filter repository.LoanFilter) ([]*domain.Loan, error) {
	query := `
		SELECT id, book_id, user_id, borrower_name, borrower_contact, issued_at
		FROM loans
		WHERE 1=1
	`
	var args []interface{}

	if filter.BookID != "" {
		query += ` AND book_id = ?`
		args = append(args, filter.BookID)
	}
	if filter.UserID != "" || filter.MatchGuest {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if !filter.IssuedAt.IsZero() {
		query += ` AND issued_at = ?`
		args = append(args, filter.IssuedAt.UTC().Format(loanTimeLayout))
	}

	query += ` ORDER BY issued_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find loans: %w", err)
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, loan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loans: %w", err)
	}

	return loans, nil
}

// Delete removes the loan with the given storage ID.
func (r *loanRepository) Delete(ctx context.Context, storeID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM loans WHERE id = ?`, storeID)
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrLoanNotFound
	}

	return nil
}

// CountByBook returns the number of active loans referencing a book.
func (r *loanRepository) CountByBook(ctx context.Context, bookID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans WHERE book_id = ?`, bookID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count loans by book: %w", err)
	}
	return count, nil
}

// CountByUser returns the number of active loans held by a user.
func (r *loanRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count loans by user: %w", err)
	}
	return count, nil
}

// List returns every active loan, oldest first.
func (r *loanRepository) List(ctx context.Context) ([]*domain.Loan, error) {
	return r.Find(ctx, repository.LoanFilter{})
}

// scanLoan reads one loan row.
func scanLoan(row rowScanner) (*domain.Loan, error) {
	loan := &domain.Loan{}
	var issuedAt string

	err := row.Scan(
		&loan.StoreID,
		&loan.BookID,
		&loan.UserID,
		&loan.BorrowerName,
		&loan.BorrowerContact,
		&issuedAt,
	)
	if err != nil {
		return nil, err
	}

	t, err := time.Parse(loanTimeLayout, issuedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse issued_at %q: %w", issuedAt, err)
	}
	loan.IssuedAt = t.UTC()

	return loan, nil
}

// Ensure loanRepository implements repository.LoanRepository.
var _ repository.LoanRepository = (*loanRepository)(nil)

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/calliard/lendingdesk/internal/domain"
	"github.com/calliard/lendingdesk/internal/lock"
	"github.com/calliard/lendingdesk/internal/repository"
	"github.com/calliard/lendingdesk/internal/session"
)

// LedgerService owns the book-lending lifecycle: issuing, returning, and
// aging of borrowed copies. Every copy-count mutation and its matching
// loan-record mutation happen in one storage transaction, so no observer
// ever sees one without the other, and the ledger lock serializes
// mutations against catalog deletes.
type LedgerService struct {
	books  repository.BookRepository
	loans  repository.LoanRepository
	tx     repository.TxManager
	locker lock.Locker
	period time.Duration
	logger zerolog.Logger
}

// NewLedgerService creates a new LedgerService with the given borrowing
// period.
func NewLedgerService(
	books repository.BookRepository,
	loans repository.LoanRepository,
	tx repository.TxManager,
	locker lock.Locker,
	period time.Duration,
	logger zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		books:  books,
		loans:  loans,
		tx:     tx,
		locker: locker,
		period: period,
		logger: logger.With().Str("service", "ledger").Logger(),
	}
}

// Period returns the configured borrowing window.
func (s *LedgerService) Period() time.Duration {
	return s.period
}

// IssueInput contains the data needed to issue a book.
// UserID is empty for a guest borrower.
type IssueInput struct {
	BookID          string
	UserID          string
	BorrowerName    string
	BorrowerContact string
}

// Issue lends one copy of a book to a borrower. It fails with
// domain.ErrBookNotFound, domain.ErrNoCopiesAvailable, or
// domain.ErrDuplicateLoan (registered borrowers may not hold two
// simultaneous loans of the identical book). On success the copy
// decrement and the new loan are committed atomically.
func (s *LedgerService) Issue(ctx context.Context, sess *session.Session, input IssueInput) (*domain.Loan, error) {
	if !sess.CanActFor(input.UserID) {
		return nil, domain.ErrAccessDenied
	}
	if input.BookID == "" || input.BorrowerName == "" {
		return nil, domain.ErrEmptyField
	}

	release, err := s.locker.Lock(ctx, lock.Keys.Ledger())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	defer release()

	loan := &domain.Loan{
		BookID:          input.BookID,
		UserID:          input.UserID,
		BorrowerName:    input.BorrowerName,
		BorrowerContact: input.BorrowerContact,
		IssuedAt:        time.Now().UTC().Truncate(time.Second),
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		book, err := s.books.GetByID(ctx, input.BookID)
		if err != nil {
			return err
		}
		if book.AvailableCopies == 0 {
			return fmt.Errorf("%w: %s", domain.ErrNoCopiesAvailable, book.ID)
		}

		if input.UserID != "" {
			existing, err := s.loans.Find(ctx, repository.LoanFilter{
				BookID: input.BookID,
				UserID: input.UserID,
			})
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInternalError, err)
			}
			if len(existing) > 0 {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateLoan, input.BookID)
			}
		}

		if err := s.books.AdjustCopies(ctx, input.BookID, -1); err != nil {
			return err
		}
		return s.loans.Create(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("book_id", loan.BookID).
		Str("user_id", loan.UserID).
		Str("borrower", loan.BorrowerName).
		Time("issued_at", loan.IssuedAt).
		Msg("book issued")

	return loan, nil
}

// ReturnInput selects the loan to close. An empty UserID matches guest
// loans only. IssuedAt is the explicit selector for the case where
// multiple guest loans of the same book are open; leave it zero when the
// (BookID, UserID) pair is unambiguous.
type ReturnInput struct {
	BookID   string
	UserID   string
	IssuedAt time.Time
}

// Return closes exactly one matching loan and restores one copy to the
// book. It fails with domain.ErrLoanNotFound when nothing matches and
// with domain.ErrAmbiguousReturn when several guest loans match and no
// issued-at selector was given. A missing book is tolerated: the loan is
// still removed, the copy restoration is skipped, and the anomaly is
// logged.
func (s *LedgerService) Return(ctx context.Context, sess *session.Session, input ReturnInput) error {
	if !sess.CanActFor(input.UserID) {
		return domain.ErrAccessDenied
	}
	if input.BookID == "" {
		return domain.ErrEmptyField
	}

	release, err := s.locker.Lock(ctx, lock.Keys.Ledger())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	defer release()

	var closed *domain.Loan

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		candidates, err := s.loans.Find(ctx, repository.LoanFilter{
			BookID:     input.BookID,
			UserID:     input.UserID,
			MatchGuest: input.UserID == "",
			IssuedAt:   input.IssuedAt,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}

		switch {
		case len(candidates) == 0:
			return fmt.Errorf("%w: book %s", domain.ErrLoanNotFound, input.BookID)
		case len(candidates) > 1 && input.IssuedAt.IsZero():
			return domain.NewDomainError(domain.ErrAmbiguousReturn,
				fmt.Sprintf("%d guest loans match", len(candidates)), input.BookID)
		}

		closed = candidates[0]
		if err := s.loans.Delete(ctx, closed.StoreID); err != nil {
			return err
		}

		if err := s.books.AdjustCopies(ctx, input.BookID, 1); err != nil {
			if errors.Is(err, domain.ErrBookNotFound) {
				// The book was deleted while on loan. The deletion
				// invariant should make this impossible; drop the copy
				// restoration and record the anomaly.
				s.logger.Warn().
					Str("book_id", input.BookID).
					Str("user_id", input.UserID).
					Msg("returned loan references a missing book")
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("book_id", closed.BookID).
		Str("user_id", closed.UserID).
		Str("borrower", closed.BorrowerName).
		Msg("book returned")

	return nil
}

// DueDate returns the instant the loan falls due under the configured
// borrowing period.
func (s *LedgerService) DueDate(loan *domain.Loan) time.Time {
	return loan.DueDate(s.period)
}

// Aging classifies the loan against its due date at the given instant.
func (s *LedgerService) Aging(loan *domain.Loan, now time.Time) domain.Aging {
	return domain.RemainingPeriod(loan, now, s.period)
}

// ListLoans returns every active loan, oldest first. Admin capability.
func (s *LedgerService) ListLoans(ctx context.Context, sess *session.Session) ([]*domain.Loan, error) {
	if !sess.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	loans, err := s.loans.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return loans, nil
}

// ListLoansForUser returns the active loans held by one user. Patrons may
// only list their own.
func (s *LedgerService) ListLoansForUser(ctx context.Context, sess *session.Session, userID string) ([]*domain.Loan, error) {
	if !sess.CanActFor(userID) {
		return nil, domain.ErrAccessDenied
	}
	loans, err := s.loans.Find(ctx, repository.LoanFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return loans, nil
}

// ListLoansForBook returns the active loans of one book, oldest first.
// Used by the return flow to disambiguate among multiple guest loans.
func (s *LedgerService) ListLoansForBook(ctx context.Context, sess *session.Session, bookID string) ([]*domain.Loan, error) {
	if !sess.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	loans, err := s.loans.Find(ctx, repository.LoanFilter{BookID: bookID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return loans, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/calliard/lendingdesk/internal/domain"
	"github.com/calliard/lendingdesk/internal/lock"
	"github.com/calliard/lendingdesk/internal/repository"
	"github.com/calliard/lendingdesk/internal/session"
)

// CatalogService manages the book catalog. Mutations require catalog
// management capability; reads are open to every authenticated session.
type CatalogService struct {
	books  repository.BookRepository
	loans  repository.LoanRepository
	seqs   repository.SequenceRepository
	tx     repository.TxManager
	locker lock.Locker
	logger zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	books repository.BookRepository,
	loans repository.LoanRepository,
	seqs repository.SequenceRepository,
	tx repository.TxManager,
	locker lock.Locker,
	logger zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		books:  books,
		loans:  loans,
		seqs:   seqs,
		tx:     tx,
		locker: locker,
		logger: logger.With().Str("service", "catalog").Logger(),
	}
}

// AddBookInput contains the data needed to add a book. The ID is
// system-generated.
type AddBookInput struct {
	Title     string
	Author    string
	Publisher string
	Year      int
	Copies    int
	Genre     string
}

// AddBook validates the input, assigns the next catalog ID, and stores
// the book. IDs advance monotonically and are never reused, even after
// deletions.
func (s *CatalogService) AddBook(ctx context.Context, sess *session.Session, input AddBookInput) (*domain.Book, error) {
	if !sess.CanManageCatalog() {
		return nil, domain.ErrAccessDenied
	}

	var book *domain.Book
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		n, err := s.seqs.Next(ctx, repository.SeqBooks)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		id := fmt.Sprintf("BOOK-%d", 1000+n)

		book = domain.NewBook(id, input.Title, input.Author, input.Publisher,
			input.Year, input.Copies, input.Genre)
		if err := book.Validate(time.Now().UTC()); err != nil {
			return err
		}
		return s.books.Create(ctx, book)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("book_id", book.ID).
		Str("title", book.Title).
		Int("copies", book.AvailableCopies).
		Msg("book added")

	return book, nil
}

// UpdateBookInput contains the editable fields of a book. The ID selects
// the book and is itself immutable.
type UpdateBookInput struct {
	ID        string
	Title     string
	Author    string
	Publisher string
	Year      int
	Copies    int
	Genre     string
}

// UpdateBook replaces every editable field of an existing book,
// including the available-copy count, after validation.
func (s *CatalogService) UpdateBook(ctx context.Context, sess *session.Session, input UpdateBookInput) (*domain.Book, error) {
	if !sess.CanManageCatalog() {
		return nil, domain.ErrAccessDenied
	}

	var book *domain.Book
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		book, err = s.books.GetByID(ctx, input.ID)
		if err != nil {
			return err
		}

		book.Title = input.Title
		book.Author = input.Author
		book.Publisher = input.Publisher
		book.Year = input.Year
		book.AvailableCopies = input.Copies
		book.Genre = input.Genre
		book.UpdatedAt = time.Now().UTC()

		if err := book.Validate(time.Now().UTC()); err != nil {
			return err
		}
		return s.books.Update(ctx, book)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("book_id", book.ID).Msg("book updated")
	return book, nil
}

// DeleteBook removes a book from the catalog. A book with active loans
// cannot be deleted; the loan records are the authority, not the copy
// count. Runs under the ledger lock so a concurrent issue cannot slip a
// new loan in between the check and the delete.
func (s *CatalogService) DeleteBook(ctx context.Context, sess *session.Session, id string) error {
	if !sess.CanManageCatalog() {
		return domain.ErrAccessDenied
	}

	release, err := s.locker.Lock(ctx, lock.Keys.Ledger())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	defer release()

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		count, err := s.loans.CountByBook(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if count > 0 {
			return domain.NewDomainError(domain.ErrBookHasActiveLoans,
				fmt.Sprintf("%d active loans", count), id)
		}
		return s.books.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("book_id", id).Msg("book deleted")
	return nil
}

// GetBook retrieves one book by ID.
func (s *CatalogService) GetBook(ctx context.Context, sess *session.Session, id string) (*domain.Book, error) {
	return s.books.GetByID(ctx, id)
}

// ListBooks returns the whole catalog ordered by ID.
func (s *CatalogService) ListBooks(ctx context.Context, sess *session.Session) ([]*domain.Book, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return books, nil
}

// SearchBooks returns the books whose title, author, or genre contains
// the query, case-insensitively. An empty query returns the full catalog.
func (s *CatalogService) SearchBooks(ctx context.Context, sess *session.Session, query string) ([]*domain.Book, error) {
	if query == "" {
		return s.ListBooks(ctx, sess)
	}
	books, err := s.books.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return books, nil
}

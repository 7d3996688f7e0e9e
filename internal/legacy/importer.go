// Package legacy imports flat-file exports from the predecessor system.
// Each export is a JSON array of ordered string records: books carry 7
// fields, users 4, loans 5. An older loan shape with 4 fields (no user
// ID) is accepted and upgraded by inserting an empty user ID, keeping
// the remaining fields in their relative positions.
package legacy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/calliard/lendingdesk/internal/domain"
	"github.com/calliard/lendingdesk/internal/pkg/crypto"
	"github.com/calliard/lendingdesk/internal/repository"
)

// timeLayout is the issue-timestamp format used by the predecessor's
// exports. Parsed as UTC.
const timeLayout = "2006-01-02 15:04:05"

// Field counts of the export record shapes.
const (
	bookFields       = 7
	userFields       = 4
	loanFields       = 5
	legacyLoanFields = 4
)

// Importer loads predecessor exports into the lending store through the
// normal repositories, so every imported record passes the same schema
// constraints as live data.
type Importer struct {
	books  repository.BookRepository
	users  repository.UserRepository
	loans  repository.LoanRepository
	tx     repository.TxManager
	logger zerolog.Logger
}

// NewImporter creates a new Importer.
func NewImporter(
	books repository.BookRepository,
	users repository.UserRepository,
	loans repository.LoanRepository,
	tx repository.TxManager,
	logger zerolog.Logger,
) *Importer {
	return &Importer{
		books:  books,
		users:  users,
		loans:  loans,
		tx:     tx,
		logger: logger.With().Str("component", "legacy-import").Logger(),
	}
}

// Result summarizes one import run.
type Result struct {
	Books    int
	Users    int
	Loans    int
	Upgraded int // legacy 4-field loan rows upgraded on the way in
}

// decodeRecords reads a JSON array of string arrays.
func decodeRecords(r io.Reader) ([][]string, error) {
	var records [][]string
	dec := json.NewDecoder(r)
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("malformed export: %w", err)
	}
	return records, nil
}

// ImportBooks reads a book export and stores every record. Record shape:
// [id, title, author, publisher, year, copies, genre].
func (im *Importer) ImportBooks(ctx context.Context, r io.Reader) (int, error) {
	records, err := decodeRecords(r)
	if err != nil {
		return 0, err
	}

	count := 0
	err = im.tx.WithTx(ctx, func(ctx context.Context) error {
		for i, rec := range records {
			if len(rec) != bookFields {
				return fmt.Errorf("book record %d: expected %d fields, got %d", i, bookFields, len(rec))
			}
			year, err := strconv.Atoi(rec[4])
			if err != nil {
				return fmt.Errorf("book record %d: bad year %q: %w", i, rec[4], err)
			}
			copies, err := strconv.Atoi(rec[5])
			if err != nil {
				return fmt.Errorf("book record %d: bad copy count %q: %w", i, rec[5], err)
			}
			book := domain.NewBook(rec[0], rec[1], rec[2], rec[3], year, copies, rec[6])
			if err := im.books.Create(ctx, book); err != nil {
				return fmt.Errorf("book record %d (%s): %w", i, book.ID, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	im.logger.Info().Int("count", count).Msg("books imported")
	return count, nil
}

// ImportUsers reads a user export and stores every record. Record shape:
// [id, fullName, contactNumber, password]. The export carries raw
// passwords; they are hashed on the way in and never stored as-is.
func (im *Importer) ImportUsers(ctx context.Context, r io.Reader) (int, error) {
	records, err := decodeRecords(r)
	if err != nil {
		return 0, err
	}

	count := 0
	err = im.tx.WithTx(ctx, func(ctx context.Context) error {
		for i, rec := range records {
			if len(rec) != userFields {
				return fmt.Errorf("user record %d: expected %d fields, got %d", i, userFields, len(rec))
			}
			hash, err := crypto.HashPassword(rec[3])
			if err != nil {
				return fmt.Errorf("user record %d (%s): %w", i, rec[0], err)
			}
			user := domain.NewUser(rec[0], rec[1], rec[2], hash)
			if err := im.users.Create(ctx, user); err != nil {
				return fmt.Errorf("user record %d (%s): %w", i, user.ID, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	im.logger.Info().Int("count", count).Msg("users imported")
	return count, nil
}

// ImportLoans reads a loan export and stores every record. Modern shape:
// [bookId, userId, borrowerName, borrowerContact, issuedAt]. The legacy
// 4-field shape [bookId, borrowerName, borrowerContact, issuedAt] is
// upgraded by inserting an empty userId at position 1. Returns the total
// imported and the number of upgraded rows.
func (im *Importer) ImportLoans(ctx context.Context, r io.Reader) (int, int, error) {
	records, err := decodeRecords(r)
	if err != nil {
		return 0, 0, err
	}

	count, upgraded := 0, 0
	err = im.tx.WithTx(ctx, func(ctx context.Context) error {
		for i, rec := range records {
			switch len(rec) {
			case loanFields:
			case legacyLoanFields:
				rec = []string{rec[0], "", rec[1], rec[2], rec[3]}
				upgraded++
			default:
				return fmt.Errorf("loan record %d: expected %d or %d fields, got %d",
					i, loanFields, legacyLoanFields, len(rec))
			}

			issuedAt, err := time.ParseInLocation(timeLayout, rec[4], time.UTC)
			if err != nil {
				return fmt.Errorf("loan record %d: bad issue timestamp %q: %w", i, rec[4], err)
			}

			loan := &domain.Loan{
				BookID:          rec[0],
				UserID:          rec[1],
				BorrowerName:    rec[2],
				BorrowerContact: rec[3],
				IssuedAt:        issuedAt,
			}
			if err := im.loans.Create(ctx, loan); err != nil {
				return fmt.Errorf("loan record %d (%s): %w", i, loan.BookID, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	im.logger.Info().Int("count", count).Int("upgraded", upgraded).Msg("loans imported")
	return count, upgraded, nil
}

// Import runs all three imports in order. Any nil reader is skipped, so
// partial exports import cleanly. Books and users go first so loan rows
// land against existing records.
func (im *Importer) Import(ctx context.Context, books, users, loans io.Reader) (*Result, error) {
	res := &Result{}

	if books != nil {
		n, err := im.ImportBooks(ctx, books)
		if err != nil {
			return nil, err
		}
		res.Books = n
	}
	if users != nil {
		n, err := im.ImportUsers(ctx, users)
		if err != nil {
			return nil, err
		}
		res.Users = n
	}
	if loans != nil {
		n, up, err := im.ImportLoans(ctx, loans)
		if err != nil {
			return nil, err
		}
		res.Loans = n
		res.Upgraded = up
	}
	return res, nil
}

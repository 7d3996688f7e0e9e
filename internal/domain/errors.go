// Package domain contains the core business entities for LendingDesk.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, I/O, etc.).

var (
	// ===========================================
	// Catalog Errors
	// ===========================================

	// ErrBookNotFound indicates the requested book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrDuplicateBookID indicates a book with the same ID already exists.
	ErrDuplicateBookID = errors.New("book ID already exists")

	// ErrBookHasActiveLoans indicates the book is referenced by active loans
	// and cannot be deleted.
	ErrBookHasActiveLoans = errors.New("book has active loans")

	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserHasActiveLoans indicates the user holds active loans and cannot
	// be deleted.
	ErrUserHasActiveLoans = errors.New("user has active loans")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ===========================================
	// Lending Errors
	// ===========================================

	// ErrLoanNotFound indicates no active loan matches the given selector.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrNoCopiesAvailable indicates the book has no unlent copies.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrDuplicateLoan indicates the borrower already holds a loan of the
	// same book.
	ErrDuplicateLoan = errors.New("borrower already holds this book")

	// ErrAmbiguousReturn indicates multiple guest loans of the same book
	// match and an explicit issued-at selector is required.
	ErrAmbiguousReturn = errors.New("multiple matching loans, issued-at selector required")

	// ===========================================
	// Validation Errors
	// ===========================================

	// ErrValidation is the parent of all field validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyField indicates a mandatory field is empty.
	ErrEmptyField = fmt.Errorf("%w: all fields are mandatory", ErrValidation)

	// ErrInvalidYear indicates the publication year is outside the accepted range.
	ErrInvalidYear = fmt.Errorf("%w: year out of range", ErrValidation)

	// ErrNegativeCopies indicates a negative copy count.
	ErrNegativeCopies = fmt.Errorf("%w: copies must be non-negative", ErrValidation)

	// ErrInvalidContact indicates the contact number contains non-digit characters.
	ErrInvalidContact = fmt.Errorf("%w: contact number must contain only digits", ErrValidation)

	// ErrPasswordTooShort indicates the raw password is shorter than six characters.
	ErrPasswordTooShort = fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)

	// ===========================================
	// Authorization Errors
	// ===========================================

	// ErrAccessDenied indicates the session lacks the required capability.
	ErrAccessDenied = errors.New("access denied")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., book ID, user ID).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

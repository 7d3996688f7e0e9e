package domain

import (
	"time"
)

// DefaultBorrowingPeriod is the fixed lending window from issue to due date.
const DefaultBorrowingPeriod = 14 * 24 * time.Hour

// secondsPerDay is the divisor for the remaining-period day arithmetic.
const secondsPerDay = 86400

// Loan is an active record of one borrowed copy of a book, open until
// returned. UserID is empty for guest borrowers whose name and contact
// were captured ad hoc. A loan has no identity beyond the
// (BookID, UserID, IssuedAt) tuple; StoreID is a storage surrogate used
// only to address a specific row.
type Loan struct {
	// StoreID is the storage row identifier. Not part of the loan's
	// domain identity.
	StoreID int64 `json:"-"`

	// BookID references the borrowed Book.
	BookID string `json:"book_id"`

	// UserID references the borrowing User, or "" for a guest borrower.
	UserID string `json:"user_id"`

	// BorrowerName is the borrower's name as captured at issue time.
	BorrowerName string `json:"borrower_name"`

	// BorrowerContact is the borrower's contact as captured at issue time.
	BorrowerContact string `json:"borrower_contact"`

	// IssuedAt is the issue timestamp, UTC, second precision.
	IssuedAt time.Time `json:"issued_at"`
}

// IsGuest reports whether the loan belongs to an unregistered borrower.
func (l *Loan) IsGuest() bool {
	return l.UserID == ""
}

// DueDate returns the instant the loan falls due: IssuedAt plus the
// borrowing period. Pure function, no side effects.
func (l *Loan) DueDate(period time.Duration) time.Time {
	return l.IssuedAt.Add(period)
}

// LoanState classifies a loan's aging relative to its due date.
type LoanState int

const (
	// Remaining means the due date is more than a full day away.
	Remaining LoanState = iota

	// DueToday means the loan is within one day of its due date, on
	// either side: truncating division means a loan a few hours overdue
	// still reports as due today.
	DueToday

	// Overdue means the due date passed at least one full day ago.
	Overdue
)

// String returns a human-readable state label.
func (s LoanState) String() string {
	switch s {
	case Remaining:
		return "remaining"
	case DueToday:
		return "due today"
	case Overdue:
		return "overdue"
	default:
		return "unknown"
	}
}

// Aging describes how far a loan is from its due date in whole days.
type Aging struct {
	State LoanState

	// Days is the magnitude: days remaining for Remaining, days overdue
	// for Overdue, zero for DueToday.
	Days int
}

// RemainingPeriod computes the loan's aging at the given instant.
// The day count is the signed seconds difference between the due date and
// now, divided by 86400 with truncation toward zero. The sign of the
// result picks the state; zero is DueToday.
func RemainingPeriod(l *Loan, now time.Time, period time.Duration) Aging {
	diff := l.DueDate(period).Unix() - now.Unix()
	days := int(diff / secondsPerDay)
	switch {
	case days > 0:
		return Aging{State: Remaining, Days: days}
	case days < 0:
		return Aging{State: Overdue, Days: -days}
	default:
		return Aging{State: DueToday, Days: 0}
	}
}

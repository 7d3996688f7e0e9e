// Package domain contains the core business entities for LendingDesk.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the lending ledger.
package domain

import (
	"time"
)

// MinPublicationYear is the earliest accepted publication year.
const MinPublicationYear = 1000

// Book represents one title in the catalog. AvailableCopies counts the
// unlent units; the total at creation is AvailableCopies plus the number
// of active loans referencing the book, and every issue/return moves
// exactly one copy between the two.
type Book struct {
	// ID is the unique catalog identifier (e.g., "BOOK-1000").
	// Immutable once created, never reused after deletion.
	ID string `json:"id"`

	// Title is the book title.
	Title string `json:"title"`

	// Author is the book author.
	Author string `json:"author"`

	// Publisher is the publishing house.
	Publisher string `json:"publisher"`

	// Year is the publication year (MinPublicationYear..current year).
	Year int `json:"year"`

	// AvailableCopies is the number of unlent copies. Never negative.
	AvailableCopies int `json:"available_copies"`

	// Genre is a free-form genre label.
	Genre string `json:"genre"`

	// CreatedAt is the timestamp when the book was added to the catalog.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the book was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBook creates a Book with bookkeeping timestamps set.
func NewBook(id, title, author, publisher string, year, copies int, genre string) *Book {
	now := time.Now().UTC()
	return &Book{
		ID:              id,
		Title:           title,
		Author:          author,
		Publisher:       publisher,
		Year:            year,
		AvailableCopies: copies,
		Genre:           genre,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate checks the field rules that apply to every book, new or edited:
// no empty fields, non-negative copies, and a publication year between
// MinPublicationYear and the current calendar year.
func (b *Book) Validate(now time.Time) error {
	if b.ID == "" || b.Title == "" || b.Author == "" || b.Publisher == "" || b.Genre == "" {
		return ErrEmptyField
	}
	if b.AvailableCopies < 0 {
		return ErrNegativeCopies
	}
	if b.Year < MinPublicationYear || b.Year > now.Year() {
		return ErrInvalidYear
	}
	return nil
}

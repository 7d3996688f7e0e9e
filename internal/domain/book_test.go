package domain

import (
	"testing"
	"time"
)

func TestBook_Validate(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	valid := func() *Book {
		return NewBook("BOOK-1000", "Dune", "Herbert", "Chilton", 1965, 2, "Science Fiction")
	}

	tests := []struct {
		name    string
		mutate  func(*Book)
		wantErr error
	}{
		{name: "valid", mutate: func(b *Book) {}},
		{name: "zero copies valid", mutate: func(b *Book) { b.AvailableCopies = 0 }},
		{name: "current year valid", mutate: func(b *Book) { b.Year = now.Year() }},
		{name: "earliest year valid", mutate: func(b *Book) { b.Year = MinPublicationYear }},
		{name: "empty title", mutate: func(b *Book) { b.Title = "" }, wantErr: ErrEmptyField},
		{name: "empty author", mutate: func(b *Book) { b.Author = "" }, wantErr: ErrEmptyField},
		{name: "empty publisher", mutate: func(b *Book) { b.Publisher = "" }, wantErr: ErrEmptyField},
		{name: "empty genre", mutate: func(b *Book) { b.Genre = "" }, wantErr: ErrEmptyField},
		{name: "negative copies", mutate: func(b *Book) { b.AvailableCopies = -1 }, wantErr: ErrNegativeCopies},
		{name: "year too early", mutate: func(b *Book) { b.Year = 999 }, wantErr: ErrInvalidYear},
		{name: "year in future", mutate: func(b *Book) { b.Year = now.Year() + 1 }, wantErr: ErrInvalidYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid()
			tt.mutate(b)
			err := b.Validate(now)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err != tt.wantErr {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateUserFields(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		contact  string
		password string
		wantErr  error
	}{
		{name: "valid", fullName: "Ada Lovelace", contact: "5551234", password: "secret1"},
		{name: "six char password valid", fullName: "Ada", contact: "5551234", password: "abcdef"},
		{name: "empty name", contact: "5551234", password: "secret1", wantErr: ErrEmptyField},
		{name: "empty contact", fullName: "Ada", password: "secret1", wantErr: ErrEmptyField},
		{name: "empty password", fullName: "Ada", contact: "5551234", wantErr: ErrEmptyField},
		{name: "contact with dash", fullName: "Ada", contact: "555-1234", password: "secret1", wantErr: ErrInvalidContact},
		{name: "contact with space", fullName: "Ada", contact: "555 1234", password: "secret1", wantErr: ErrInvalidContact},
		{name: "five char password", fullName: "Ada", contact: "5551234", password: "abc12", wantErr: ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUserFields(tt.fullName, tt.contact, tt.password)
			if err != tt.wantErr {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

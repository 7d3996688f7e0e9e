package domain

import (
	"time"
)

// MinPasswordLength is the minimum raw password length before hashing.
const MinPasswordLength = 6

// User represents a registered patron.
type User struct {
	// ID is the unique identifier (e.g., "USER-1000").
	// System-generated, immutable, never reused after deletion.
	ID string `json:"id"`

	// FullName is the patron's display name.
	FullName string `json:"full_name"`

	// ContactNumber is a digits-only phone number.
	ContactNumber string `json:"contact_number"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never exposed in listings or serialized output.
	PasswordHash string `json:"-"`

	// CreatedAt is the timestamp when the user registered.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a User with bookkeeping timestamps set.
func NewUser(id, fullName, contactNumber, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:            id,
		FullName:      fullName,
		ContactNumber: contactNumber,
		PasswordHash:  passwordHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ValidateUserFields checks registration input before the password is
// hashed: no empty fields, digits-only contact number, minimum password
// length.
func ValidateUserFields(fullName, contactNumber, rawPassword string) error {
	if fullName == "" || contactNumber == "" || rawPassword == "" {
		return ErrEmptyField
	}
	for _, r := range contactNumber {
		if r < '0' || r > '9' {
			return ErrInvalidContact
		}
	}
	if len(rawPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

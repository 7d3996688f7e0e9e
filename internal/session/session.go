// Package session defines the capability-scoped session handed out by
// authentication. Callers check session capabilities before invoking
// privileged ledger operations instead of branching on a role flag.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the two kinds of authenticated caller.
type Role string

const (
	// RoleAdmin is the distinguished administrator.
	RoleAdmin Role = "admin"

	// RolePatron is a registered library user.
	RolePatron Role = "patron"
)

// Session is the result of a successful authentication. For patrons it
// carries the user's identity so self-service operations can fill in
// borrower details without reaching back into the user store.
type Session struct {
	// ID uniquely identifies this login session.
	ID uuid.UUID

	// Role is the capability class of the caller.
	Role Role

	// UserID is the authenticated user's ID ("admin" for the admin session).
	UserID string

	// Name is the display name of the caller.
	Name string

	// Contact is the patron's contact number. Empty for admin.
	Contact string

	// CreatedAt is when the session was established.
	CreatedAt time.Time
}

// NewAdmin creates an administrator session.
func NewAdmin(adminID string) *Session {
	return &Session{
		ID:        uuid.New(),
		Role:      RoleAdmin,
		UserID:    adminID,
		Name:      "Admin",
		CreatedAt: time.Now().UTC(),
	}
}

// NewPatron creates a patron session scoped to the given user identity.
func NewPatron(userID, name, contact string) *Session {
	return &Session{
		ID:        uuid.New(),
		Role:      RolePatron,
		UserID:    userID,
		Name:      name,
		Contact:   contact,
		CreatedAt: time.Now().UTC(),
	}
}

// IsAdmin reports whether the session has administrator capabilities.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// CanManageCatalog reports whether the session may add, edit, or delete
// catalog entries.
func (s *Session) CanManageCatalog() bool {
	return s.Role == RoleAdmin
}

// CanManageUsers reports whether the session may administer user accounts.
func (s *Session) CanManageUsers() bool {
	return s.Role == RoleAdmin
}

// CanActFor reports whether the session may issue or return books on
// behalf of the given user ID. Admins act for anyone, including guests;
// patrons act only for themselves.
func (s *Session) CanActFor(userID string) bool {
	if s.Role == RoleAdmin {
		return true
	}
	return s.UserID == userID
}

package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/calliard/lendingdesk/internal/domain"
	"github.com/calliard/lendingdesk/internal/pkg/crypto"
	"github.com/calliard/lendingdesk/internal/repository"
	"github.com/calliard/lendingdesk/internal/session"
)

// AuthService authenticates callers and hands out capability-scoped
// sessions. The administrator credential comes from configuration, not
// the user store; patron credentials are checked against their bcrypt
// hashes.
type AuthService struct {
	users         repository.UserRepository
	adminID       string
	adminPassword string
	logger        zerolog.Logger
}

// NewAuthService creates a new AuthService with the configured
// administrator credential.
func NewAuthService(users repository.UserRepository, adminID, adminPassword string, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:         users,
		adminID:       adminID,
		adminPassword: adminPassword,
		logger:        logger.With().Str("service", "auth").Logger(),
	}
}

// Authenticate verifies the credential and returns a session. The
// distinguished admin ID is checked first; every other ID is looked up in
// the user store. Unknown ID and wrong password both report
// domain.ErrInvalidCredentials, never which half was wrong.
func (s *AuthService) Authenticate(ctx context.Context, id, password string) (*session.Session, error) {
	if id == s.adminID {
		if password != s.adminPassword {
			s.logger.Warn().Str("id", id).Msg("failed admin login")
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Info().Str("id", id).Msg("admin logged in")
		return session.NewAdmin(s.adminID), nil
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn().Str("id", id).Msg("failed login")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.CheckPassword(user.PasswordHash, password) {
		s.logger.Warn().Str("id", id).Msg("failed login")
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info().Str("id", id).Msg("patron logged in")
	return session.NewPatron(user.ID, user.FullName, user.ContactNumber), nil
}

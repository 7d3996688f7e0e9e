package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/calliard/lendingdesk/internal/domain"
	"github.com/calliard/lendingdesk/internal/lock"
	"github.com/calliard/lendingdesk/internal/pkg/crypto"
	"github.com/calliard/lendingdesk/internal/repository"
	"github.com/calliard/lendingdesk/internal/session"
)

// UserService manages patron accounts. Self-registration is open;
// everything else that touches another account requires user management
// capability.
type UserService struct {
	users  repository.UserRepository
	loans  repository.LoanRepository
	seqs   repository.SequenceRepository
	tx     repository.TxManager
	locker lock.Locker
	logger zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	users repository.UserRepository,
	loans repository.LoanRepository,
	seqs repository.SequenceRepository,
	tx repository.TxManager,
	locker lock.Locker,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		users:  users,
		loans:  loans,
		seqs:   seqs,
		tx:     tx,
		locker: locker,
		logger: logger.With().Str("service", "user").Logger(),
	}
}

// RegisterInput contains the data needed to create a patron account.
type RegisterInput struct {
	FullName      string
	ContactNumber string
	Password      string
}

// Register creates a patron account with a system-generated ID and a
// bcrypt password hash. Open to unauthenticated callers; there is no
// session parameter on purpose.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := domain.ValidateUserFields(input.FullName, input.ContactNumber, input.Password); err != nil {
		return nil, err
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	var user *domain.User
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		n, err := s.seqs.Next(ctx, repository.SeqUsers)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		user = domain.NewUser(fmt.Sprintf("USER-%d", 1000+n),
			input.FullName, input.ContactNumber, hash)
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("name", user.FullName).
		Msg("user registered")

	return user, nil
}

// AdminCreate creates a patron account on behalf of an administrator.
// Same validation and ID generation as self-registration.
func (s *UserService) AdminCreate(ctx context.Context, sess *session.Session, input RegisterInput) (*domain.User, error) {
	if !sess.CanManageUsers() {
		return nil, domain.ErrAccessDenied
	}
	return s.Register(ctx, input)
}

// ChangePassword sets a new password for a user. Patrons change their
// own and must present the current password; admins reset anyone's
// without it.
func (s *UserService) ChangePassword(ctx context.Context, sess *session.Session, userID, oldPassword, newPassword string) error {
	if !sess.CanActFor(userID) {
		return domain.ErrAccessDenied
	}
	if len(newPassword) < domain.MinPasswordLength {
		return domain.ErrPasswordTooShort
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !sess.IsAdmin() && !crypto.CheckPassword(user.PasswordHash, oldPassword) {
			return domain.ErrInvalidCredentials
		}
		user.PasswordHash = hash
		user.UpdatedAt = time.Now().UTC()
		return s.users.Update(ctx, user)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("user_id", userID).Msg("password changed")
	return nil
}

// Delete removes a patron account. A user holding active loans cannot be
// deleted. Runs under the ledger lock for the same reason as book
// deletion.
func (s *UserService) Delete(ctx context.Context, sess *session.Session, userID string) error {
	if !sess.CanManageUsers() {
		return domain.ErrAccessDenied
	}

	release, err := s.locker.Lock(ctx, lock.Keys.Ledger())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	defer release()

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		count, err := s.loans.CountByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if count > 0 {
			return domain.NewDomainError(domain.ErrUserHasActiveLoans,
				fmt.Sprintf("%d active loans", count), userID)
		}
		return s.users.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("user_id", userID).Msg("user deleted")
	return nil
}

// Get retrieves one user by ID. Patrons may only fetch themselves.
func (s *UserService) Get(ctx context.Context, sess *session.Session, userID string) (*domain.User, error) {
	if !sess.CanActFor(userID) {
		return nil, domain.ErrAccessDenied
	}
	return s.users.GetByID(ctx, userID)
}

// List returns all patron accounts ordered by ID. Admin capability.
func (s *UserService) List(ctx context.Context, sess *session.Session) ([]*domain.User, error) {
	if !sess.CanManageUsers() {
		return nil, domain.ErrAccessDenied
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return users, nil
}

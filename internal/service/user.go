package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/taskapi/internal/apperror"
	"github.com/sakif/taskapi/internal/auth"
	"github.com/sakif/taskapi/internal/model"
	"github.com/sakif/taskapi/internal/repository"
)

// ErrNotVerified is returned by Verify for an unknown username and for a
// wrong password alike.
var ErrNotVerified = apperror.Unauthorized("invalid username or password")

// UserService handles user accounts and credential checks.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger

	// dummyHash is compared against when the username does not exist, so
	// an unknown user costs the same bcrypt work as a wrong password.
	dummyHash string
}

// NewUserService creates a UserService. It hashes one throwaway password
// up front, which takes one bcrypt round at the configured cost.
func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	dummy, err := passwords.Hash("no-such-user-placeholder")
	if err != nil {
		logger.Warn("could not prepare dummy password hash", slog.String("error", err.Error()))
	}
	return &UserService{
		users:     users,
		passwords: passwords,
		logger:    logger,
		dummyHash: dummy,
	}
}

// hashPassword validates a plaintext password and returns its bcrypt hash.
func (s *UserService) hashPassword(password string) (string, error) {
	if password == "" {
		return "", apperror.ValidationFailed("password", "password is required")
	}
	if len(password) > auth.MaxPasswordBytes {
		return "", apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return hash, nil
}

// Add registers a new user. The password is stored only as a bcrypt hash.
// Returns apperror.ErrConflict when the username or email is taken.
func (s *UserService) Add(ctx context.Context, username, password, email string) (*model.User, error) {
	username, err := requireText("username", username)
	if err != nil {
		return nil, err
	}
	email, err = requireText("email", email)
	if err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create user",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Verify checks a username/password pair. It returns nil when they match
// and ErrNotVerified when the user is unknown or the password is wrong;
// the two cases are indistinguishable to the caller.
//
// The username is trimmed exactly as Add trims it before storing, so the
// name a user registered with always finds the stored row.
func (s *UserService) Verify(ctx context.Context, username, password string) error {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.Matches(s.dummyHash, password)
			s.logger.Info("verification failed", slog.String("reason", "unknown user"))
			return ErrNotVerified
		}
		return fmt.Errorf("verifying user: %w", err)
	}

	if !s.passwords.Matches(user.PasswordHash, password) {
		s.logger.Info("verification failed",
			slog.Int64("id", user.ID),
			slog.String("reason", "password mismatch"),
		)
		return ErrNotVerified
	}

	s.logger.Debug("user verified", slog.Int64("id", user.ID))
	return nil
}

// List returns every user ordered by id.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Delete removes a user. Returns apperror.ErrNotFound if it does not exist.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := requireID("user", id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", slog.Int64("id", id))
	return nil
}

// UpdateProfile changes the username and/or email. Nil patch fields are
// left as they are; an empty patch returns the stored user unchanged.
// Only the supplied columns are written, so a password change committed
// by a concurrent request survives.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	if err := requireID("user", id); err != nil {
		return nil, err
	}

	var clean model.UserPatch
	if patch.Username != nil {
		username, err := requireText("username", *patch.Username)
		if err != nil {
			return nil, err
		}
		clean.Username = &username
	}
	if patch.Email != nil {
		email, err := requireText("email", *patch.Email)
		if err != nil {
			return nil, err
		}
		clean.Email = &email
	}

	if clean.Username != nil || clean.Email != nil {
		if err := s.users.UpdateProfile(ctx, id, clean); err != nil {
			return nil, fmt.Errorf("updating user: %w", err)
		}
		s.logger.Info("user updated", slog.Int64("id", id))
	}

	return s.users.GetByID(ctx, id)
}

// UpdatePassword replaces the stored hash with a hash of password.
func (s *UserService) UpdatePassword(ctx context.Context, id int64, password string) (*model.User, error) {
	if err := requireID("user", id); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return nil, fmt.Errorf("updating password: %w", err)
	}

	s.logger.Info("password changed", slog.Int64("id", id))
	return s.users.GetByID(ctx, id)
}

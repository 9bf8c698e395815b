package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

// UserService handles registration and profile changes.
//
// PERMISSIONS:
//   - anyone may register, list and look up users
//   - a user may rename themselves or set their own photo; admins may do it for anyone
//   - only admins delete users
type UserService struct {
	users     repository.UserRepository
	files     repository.FileRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	files repository.FileRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		files:     files,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput is what a new account needs. PhotoID is optional.
type RegisterInput struct {
	Username string
	Password string
	PhotoID  *int64
}

func validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", apperror.ValidationFailed("username", "username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	return username, nil
}

// Register creates a user with role "user". A taken username is a
// validation error and no row is written.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username, err := validateUsername(in.Username)
	if err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	if in.PhotoID != nil {
		if err := s.checkFile(ctx, *in.PhotoID); err != nil {
			return nil, err
		}
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		// Hash only fails on input it refuses (too long) or on bcrypt itself.
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleUser,
		PhotoID:      in.PhotoID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)
	return s.users.GetByID(ctx, user.ID)
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	users, err := s.users.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// FindAny returns the users whose username is any of usernames.
func (s *UserService) FindAny(ctx context.Context, usernames []string) ([]model.User, error) {
	cleaned := make([]string, 0, len(usernames))
	for _, name := range usernames {
		if name = strings.TrimSpace(name); name != "" {
			cleaned = append(cleaned, name)
		}
	}
	if len(cleaned) == 0 {
		return nil, apperror.ValidationFailed("username", "at least one username is required")
	}
	return s.users.FindByUsernames(ctx, cleaned)
}

// authorizeSelfOrAdmin resolves the target user first, then checks the caller.
func (s *UserService) authorizeSelfOrAdmin(ctx context.Context, caller model.Caller, id int64) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	if !caller.Is(id) && !caller.IsAdmin() {
		return apperror.Forbidden("you can only change your own profile")
	}
	return nil
}

func (s *UserService) UpdateUsername(ctx context.Context, caller model.Caller, id int64, username string) (*model.User, error) {
	if err := s.authorizeSelfOrAdmin(ctx, caller, id); err != nil {
		return nil, err
	}
	username, err := validateUsername(username)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateUsername(ctx, id, username); err != nil {
		return nil, err
	}

	s.logger.Info("username changed", slog.Int64("id", id), slog.String("username", username))
	return s.users.GetByID(ctx, id)
}

// SetPhoto associates an uploaded file with the user's profile.
func (s *UserService) SetPhoto(ctx context.Context, caller model.Caller, id, fileID int64) (*model.User, error) {
	if err := s.authorizeSelfOrAdmin(ctx, caller, id); err != nil {
		return nil, err
	}
	if err := s.checkFile(ctx, fileID); err != nil {
		return nil, err
	}

	if err := s.users.SetPhoto(ctx, id, fileID); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// Delete removes a user and, through the cascade, all their notes.
func (s *UserService) Delete(ctx context.Context, caller model.Caller, id int64) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return apperror.Forbidden("only an admin can delete users")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Warn("user deleted", slog.Int64("id", id), slog.Int64("by", caller.UserID))
	return nil
}

// checkFile turns a dangling photo reference into a validation error on photo_id.
func (s *UserService) checkFile(ctx context.Context, fileID int64) error {
	if _, err := s.files.GetByID(ctx, fileID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ValidationFailed("photo_id", fmt.Sprintf("file %d does not exist", fileID))
		}
		return fmt.Errorf("checking file %d: %w", fileID, err)
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin account if no user has that name yet.
// An existing account is left as it is, whatever its role.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (*model.User, error) {
	existing, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		if !existing.IsAdmin() {
			s.logger.Warn("bootstrap admin name is taken by a regular user", slog.String("username", username))
		}
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("looking up admin %q: %w", username, err)
	}

	if username, err = validateUsername(username); err != nil {
		return nil, err
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}

	admin := &model.User{Username: username, PasswordHash: hash, Role: model.RoleAdmin, IsStaff: true}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("creating admin %q: %w", username, err)
	}
	s.logger.Info("bootstrap admin created", slog.Int64("id", admin.ID), slog.String("username", username))
	return admin, nil
}

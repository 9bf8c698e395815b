package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores user accounts.
type UserDB struct {
	db *DB
}

const userSelect = `
	SELECT u.id, u.username, u.password_hash, u.is_staff, u.role, f.id, f.url
	FROM "user" u
	LEFT JOIN file f ON f.id = u.photo_id`

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u        model.User
		photoID  sql.NullInt64
		photoURL sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsStaff, &u.Role, &photoID, &photoURL); err != nil {
		return nil, err
	}
	if photoID.Valid {
		u.PhotoID = &photoID.Int64
		u.Photo = &model.File{ID: photoID.Int64, URL: photoURL.String}
	}
	return &u, nil
}

// duplicateUsername is the error returned when the UNIQUE constraint on
// username fires. The INSERT/UPDATE is a single statement, so nothing was
// written.
func duplicateUsername(username string) error {
	return apperror.ValidationFailed("username",
		fmt.Sprintf("user with username %s already exists", username))
}

// Create inserts a user and fills in its ID. Role defaults to "user".
//
// A duplicate username surfaces as a validation error, not as a raw driver
// error, so the HTTP layer reports a 400 creation failure.
func (s *UserDB) Create(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	result, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO "user" (username, password_hash, is_staff, role, photo_id)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.PasswordHash, user.IsStaff, user.Role, user.PhotoID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateUsername(user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetByID retrieves a user by id.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserDB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(s.db.conn.QueryRowContext(ctx, userSelect+` WHERE u.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

func (s *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(s.db.conn.QueryRowContext(ctx, userSelect+` WHERE u.username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}
	return u, nil
}

func (s *UserDB) FindByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	if len(usernames) == 0 {
		return []model.User{}, nil
	}
	args := make([]any, len(usernames))
	for i, name := range usernames {
		args[i] = name
	}
	return s.queryUsers(ctx,
		userSelect+` WHERE u.username IN (`+placeholders(len(args))+`) ORDER BY u.id`,
		args...,
	)
}

func (s *UserDB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit, offset := clampPage(opts)
	return s.queryUsers(ctx, userSelect+` ORDER BY u.id LIMIT ? OFFSET ?`, limit, offset)
}

func (s *UserDB) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

func (s *UserDB) UpdateUsername(ctx context.Context, id int64, username string) error {
	result, err := s.db.conn.ExecContext(ctx,
		`UPDATE "user" SET username = ? WHERE id = ?`, username, id)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateUsername(username)
		}
		return fmt.Errorf("sqlite: updating user %d: %w", id, err)
	}
	return checkAffected(result, func() error { return apperror.NotFound("user", id) })
}

// SetPhoto points the user's photo at an existing file.
func (s *UserDB) SetPhoto(ctx context.Context, id int64, fileID int64) error {
	result, err := s.db.conn.ExecContext(ctx,
		`UPDATE "user" SET photo_id = ? WHERE id = ?`, fileID, id)
	if err != nil {
		return fmt.Errorf("sqlite: setting photo of user %d: %w", id, err)
	}
	return checkAffected(result, func() error { return apperror.NotFound("user", id) })
}

// Delete removes the user. Their notes are removed by ON DELETE CASCADE.
func (s *UserDB) Delete(ctx context.Context, id int64) error {
	result, err := s.db.conn.ExecContext(ctx, `DELETE FROM "user" WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}
	return checkAffected(result, func() error { return apperror.NotFound("user", id) })
}

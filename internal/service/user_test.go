package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.Register(ctx, RegisterInput{Username: " alice ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2"), "password must be stored as bcrypt")
	assert.Nil(t, u.Photo)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, RegisterInput{Username: "alice", Password: "one"})
	require.NoError(t, err)
	_, err = env.users.Register(ctx, RegisterInput{Username: "alice", Password: "two"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	all, err := env.users.FindAny(ctx, []string{"alice"})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	missingPhoto := int64(42)

	tests := []struct {
		name      string
		in        RegisterInput
		wantField string
	}{
		{"empty username", RegisterInput{Username: "", Password: "x"}, "username"},
		{"long username", RegisterInput{Username: strings.Repeat("u", MaxUsernameLength+1), Password: "x"}, "username"},
		{"empty password", RegisterInput{Username: "bob"}, "password"},
		{"long password", RegisterInput{Username: "bob", Password: strings.Repeat("p", 73)}, "password"},
		{"unknown photo", RegisterInput{Username: "bob", Password: "x", PhotoID: &missingPhoto}, "photo_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(ctx, tt.in)
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestRegister_WithPhoto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	file := &model.File{URL: "/uploads/p.png"}
	require.NoError(t, env.db.Files().Create(ctx, file))

	u, err := env.users.Register(ctx, RegisterInput{Username: "alice", Password: "x", PhotoID: &file.ID})
	require.NoError(t, err)
	require.NotNil(t, u.Photo)
	assert.Equal(t, "/uploads/p.png", u.Photo.URL)
}

func TestFindAny(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "alice", model.RoleUser)
	env.user(t, "bob", model.RoleUser)
	env.user(t, "carol", model.RoleUser)

	got, err := env.users.FindAny(ctx, []string{"alice", "carol", "nobody"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Username)
	assert.Equal(t, "carol", got[1].Username)

	_, err = env.users.FindAny(ctx, []string{" ", ""})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateUsername_SelfOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleUser)
	bob := env.user(t, "bob", model.RoleUser)
	admin := env.user(t, "root", model.RoleAdmin)

	u, err := env.users.UpdateUsername(ctx, alice, alice.UserID, "alicia")
	require.NoError(t, err)
	assert.Equal(t, "alicia", u.Username)

	_, err = env.users.UpdateUsername(ctx, bob, alice.UserID, "bobbed")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = env.users.UpdateUsername(ctx, admin, alice.UserID, "renamed")
	assert.NoError(t, err)

	_, err = env.users.UpdateUsername(ctx, admin, alice.UserID, "bob")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.users.UpdateUsername(ctx, bob, 999, "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound, "existence is checked before permission")
}

func TestSetPhoto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleUser)
	bob := env.user(t, "bob", model.RoleUser)
	file := &model.File{URL: "/uploads/a.gif"}
	require.NoError(t, env.db.Files().Create(ctx, file))

	_, err := env.users.SetPhoto(ctx, bob, alice.UserID, file.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = env.users.SetPhoto(ctx, alice, alice.UserID, 777)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	u, err := env.users.SetPhoto(ctx, alice, alice.UserID, file.ID)
	require.NoError(t, err)
	require.NotNil(t, u.Photo)
	assert.Equal(t, file.ID, u.Photo.ID)
}

func TestDeleteUser_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleUser)
	admin := env.user(t, "root", model.RoleAdmin)
	note := env.note(t, alice, "mine", false)

	assert.ErrorIs(t, env.users.Delete(ctx, alice, alice.UserID), apperror.ErrForbidden)
	require.NoError(t, env.users.Delete(ctx, admin, alice.UserID))

	_, err := env.users.Get(ctx, alice.UserID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = env.notes.Get(ctx, admin, note.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "notes go with their owner")
}

func TestEnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, err := env.users.EnsureAdmin(ctx, "root", "rootpass")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	again, err := env.users.EnsureAdmin(ctx, "root", "other")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID, "second call must not create another account")

	env.user(t, "plain", model.RoleUser)
	existing, err := env.users.EnsureAdmin(ctx, "plain", "x")
	require.NoError(t, err)
	assert.False(t, existing.IsAdmin(), "existing accounts are never promoted")
}

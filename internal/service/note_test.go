package service

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/metrics"
	"github.com/sakif/notes-api/internal/model"
)

func ptr[T any](v T) *T { return &v }

// =========================================================================
// CREATE
// =========================================================================

func TestNoteCreate_DefaultsToPrivate(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice", model.RoleUser)

	note, err := env.notes.Create(context.Background(), alice, "  buy milk  ", nil)
	require.NoError(t, err)

	assert.Equal(t, "buy milk", note.Text)
	assert.True(t, note.Private)
	assert.False(t, note.Archived)
	assert.Empty(t, note.Tags)
	require.NotNil(t, note.Author)
	assert.Equal(t, "alice", note.Author.Username)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.NotesOperations.WithLabelValues(metrics.OpCreate)))
}

func TestNoteCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice", model.RoleUser)

	tests := []struct {
		name    string
		caller  model.Caller
		text    string
		wantErr error
	}{
		{"empty", alice, "", apperror.ErrValidation},
		{"whitespace", alice, "   ", apperror.ErrValidation},
		{"too long", alice, strings.Repeat("a", MaxNoteTextLength+1), apperror.ErrValidation},
		{"anonymous", model.Anonymous, "hello", apperror.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.notes.Create(context.Background(), tt.caller, tt.text, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := env.notes.Create(context.Background(), alice, strings.Repeat("é", MaxNoteTextLength), nil)
	assert.NoError(t, err, "limit counts characters, not bytes")
}

// =========================================================================
// GET / LIST
// =========================================================================

func TestNoteGet_TwoStepLookup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleUser)
	bob := env.user(t, "bob", model.RoleUser)
	private := env.note(t, alice, "secret", true)

	_, err := env.notes.Get(ctx, bob, private.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "a hidden note must look missing")

	_, err = env.notes.Get(ctx, bob, 9999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	got, err := env.notes.Get(ctx, alice, private.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Text)
}

func TestNoteList_AliceBobExample(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleUser)
	bob := env.user(t, "bob", model.RoleUser)

	a := env.note(t, alice, "A", true)
	b := env.note(t, alice, "B", false)

	got, err := env.notes.List(ctx, bob, NoteQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids(got))

	got, err = env.notes.List(ctx, alice, NoteQuery{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a.ID, b.ID}, ids(got))
}

func TestNoteList_UrgentAndPrivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleUser)
	urgent := env.tag(t, "urgent")

	match := env.note(t, alice, "urgent private", true)
	public := env.note(t, alice, "urgent public", false)
	env.note(t, alice, "untagged private", true)
	for _, n := range []*model.Note{match, public} {
		_, err := env.notes.AttachTags(ctx, alice, n.ID, []int64{urgent.ID})
		require.NoError(t, err)
	}

	got, err := env.notes.List(ctx, alice, NoteQuery{TagName: ptr("urgent"), Private: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, []int64{match.ID}, ids(got))
}

func TestNoteSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleUser)
	milk := env.note(t, alice, "buy milk", true)
	env.note(t, alice, "call mom", true)

	got, err := env.notes.Search(ctx, alice, "milk", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{milk.ID}, ids(got))

	_, err = env.notes.Search(ctx, alice, "", 0, 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.notes.Search(ctx, alice, "   ", 0, 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestNoteFilterByTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleUser)
	one := env.tag(t, "one")
	two := env.tag(t, "two")
	n1 := env.note(t, alice, "n1", true)
	n2 := env.note(t, alice, "n2", false)
	_, err := env.notes.AttachTags(ctx, alice, n1.ID, []int64{one.ID})
	require.NoError(t, err)
	_, err = env.notes.AttachTags(ctx, alice, n2.ID, []int64{two.ID})
	require.NoError(t, err)

	got, err := env.notes.FilterByTags(ctx, alice, []int64{one.ID, two.ID}, nil, 0, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{n1.ID, n2.ID}, ids(got))

	got, err = env.notes.FilterByTags(ctx, alice, []int64{one.ID, two.ID}, ptr(false), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{n2.ID}, ids(got))

	_, err = env.notes.FilterByTags(ctx, alice, nil, nil, 0, 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// =========================================================================
// UPDATE
// =========================================================================

func TestNoteUpdate_PartialAndOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleUser)
	bob := env.user(t, "bob", model.RoleUser)
	admin := env.user(t, "root", model.RoleAdmin)
	note := env.note(t, alice, "draft", false)

	updated, err := env.notes.Update(ctx, alice, note.ID, UpdateNoteInput{Private: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "draft", updated.Text, "absent text must be unchanged")
	assert.True(t, updated.Private)

	// Now private, so bob cannot even see it.
	_, err = env.notes.Update(ctx, bob, note.ID, UpdateNoteInput{Text: ptr("hack")})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	public := env.note(t, alice, "public", false)
	_, err = env.notes.Update(ctx, bob, public.ID, UpdateNoteInput{Text: ptr("hack")})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = env.notes.Update(ctx, admin, public.ID, UpdateNoteInput{Text: ptr("hack")})
	assert.ErrorIs(t, err, apperror.ErrForbidden, "admins do not edit other people's notes")

	_, err = env.notes.Update(ctx, alice, note.ID, UpdateNoteInput{Text: ptr("")})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

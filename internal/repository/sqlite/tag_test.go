package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

func TestTagCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tag := createTestTag(t, db, "work")
	assert.NotZero(t, tag.ID)

	found, err := db.Tags().GetByID(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "work", found.Name)

	require.NoError(t, db.Tags().Update(ctx, &model.Tag{ID: tag.ID, Name: "office"}))
	found, err = db.Tags().GetByID(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "office", found.Name)

	require.NoError(t, db.Tags().Delete(ctx, tag.ID))
	_, err = db.Tags().GetByID(ctx, tag.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTagList(t *testing.T) {
	db := newTestDB(t)
	createTestTag(t, db, "a")
	createTestTag(t, db, "b")

	tags, err := db.Tags().List(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "a", tags[0].Name)
	assert.Equal(t, "b", tags[1].Name)
}

func TestTagMissing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	assert.ErrorIs(t, db.Tags().Update(ctx, &model.Tag{ID: 9, Name: "x"}), apperror.ErrNotFound)
	assert.ErrorIs(t, db.Tags().Delete(ctx, 9), apperror.ErrNotFound)
}

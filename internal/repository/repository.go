// Package repository declares the persistence interfaces the services depend on.
// internal/repository/sqlite is the only implementation.
package repository

import (
	"context"

	"github.com/sakif/notes-api/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// Scope is the base note set a query starts from.
//
// ViewerID selects notes owned by that user or public ones; archived notes are
// always excluded. The zero Scope (anonymous viewer) sees public notes only.
type Scope struct {
	ViewerID int64
}

// NoteFilter narrows a Scope. A nil field means "no filter", never "false" or
// "empty": Private == nil keeps private and public notes, TagIDs == nil skips
// the tag-id filter.
type NoteFilter struct {
	Scope    Scope
	TagName  *string
	TagIDs   []int64
	Private  *bool
	Username *string
	Text     *string
	ListOptions
}

type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	// GetByID loads a note regardless of archive state or visibility.
	GetByID(ctx context.Context, id int64) (*model.Note, error)
	List(ctx context.Context, filter NoteFilter) ([]model.Note, error)
	Update(ctx context.Context, note *model.Note) error
	SetArchived(ctx context.Context, id int64, archived bool) error
	// AttachTags adds every tag in tagIDs, or none if any id does not exist.
	AttachTags(ctx context.Context, noteID int64, tagIDs []int64) error
	// DetachTags removes every tag in tagIDs, or none if any id is not attached.
	DetachTags(ctx context.Context, noteID int64, tagIDs []int64) error
	Delete(ctx context.Context, id int64) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// FindByUsernames returns the users matching any of the given names.
	FindByUsernames(ctx context.Context, usernames []string) ([]model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	UpdateUsername(ctx context.Context, id int64, username string) error
	SetPhoto(ctx context.Context, id int64, fileID int64) error
	Delete(ctx context.Context, id int64) error
}

type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) error
	GetByID(ctx context.Context, id int64) (*model.Tag, error)
	List(ctx context.Context, opts ListOptions) ([]model.Tag, error)
	Update(ctx context.Context, tag *model.Tag) error
	Delete(ctx context.Context, id int64) error
}

type FileRepository interface {
	Create(ctx context.Context, file *model.File) error
	GetByID(ctx context.Context, id int64) (*model.File, error)
}

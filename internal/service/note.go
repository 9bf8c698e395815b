// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Every service method that acts on behalf of someone takes the caller as an
// explicit model.Caller argument. Services never read identity from the
// context; the handler does that once per request.
//
// DEPENDENCY INJECTION:
// Services take repository interfaces, not *sqlite.DB. main.go decides which
// implementation to pass; the tests pass an in-memory SQLite database.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/metrics"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/policy"
	"github.com/sakif/notes-api/internal/repository"
)

// Validation constants.
const (
	MaxNoteTextLength = 255
	MaxUsernameLength = 32
	MaxTagNameLength  = 64
)

// NoteService handles business logic for notes: creation, lookups, listings
// and edits. The archive/restore and tag membership operations live in
// note_lifecycle.go.
type NoteService struct {
	notes   repository.NoteRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewNoteService(notes repository.NoteRepository, m *metrics.Metrics, logger *slog.Logger) *NoteService {
	return &NoteService{
		notes:   notes,
		metrics: m,
		logger:  logger,
	}
}

// NoteQuery is the set of optional listing filters. Nil means "not filtered".
type NoteQuery struct {
	TagName  *string
	TagIDs   []int64
	Private  *bool
	Username *string
	Text     *string
	Limit    int
	Offset   int
}

// UpdateNoteInput carries the editable fields. A nil field is left unchanged.
type UpdateNoteInput struct {
	Text    *string
	Private *bool
}

func validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperror.ValidationFailed("text", "note text is required")
	}
	if utf8.RuneCountInString(text) > MaxNoteTextLength {
		return "", apperror.ValidationFailed("text",
			fmt.Sprintf("note text must be %d characters or less", MaxNoteTextLength))
	}
	return text, nil
}

// Create saves a new note owned by the caller. private defaults to true when nil.
func (s *NoteService) Create(ctx context.Context, caller model.Caller, text string, private *bool) (*model.Note, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required to create notes")
	}

	text, err := validateText(text)
	if err != nil {
		return nil, err
	}

	note := &model.Note{
		OwnerID: caller.UserID,
		Text:    text,
		Private: true,
	}
	if private != nil {
		note.Private = *private
	}

	if err := s.notes.Create(ctx, note); err != nil {
		s.logger.Error("failed to create note",
			slog.Int64("owner", caller.UserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating note: %w", err)
	}
	s.metrics.NoteOperation(metrics.OpCreate)

	s.logger.Info("note created",
		slog.Int64("id", note.ID),
		slog.Int64("owner", caller.UserID),
	)

	// Reload so the response carries the author like every other read.
	return s.notes.GetByID(ctx, note.ID)
}

// resolve is step one of the two-step lookup: load by id, then check the policy.
// A missing id and a denied read are both NotFound.
func (s *NoteService) resolve(ctx context.Context, caller model.Caller, id int64, action policy.Action) (*model.Note, error) {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(caller, note, action); err != nil {
		return nil, err
	}
	return note, nil
}

// Get returns one note if the caller may read it.
// Owners can read their own archived notes.
func (s *NoteService) Get(ctx context.Context, caller model.Caller, id int64) (*model.Note, error) {
	return s.resolve(ctx, caller, id, policy.Read)
}

// List returns the caller's visible notes narrowed by q.
func (s *NoteService) List(ctx context.Context, caller model.Caller, q NoteQuery) ([]model.Note, error) {
	if q.Text != nil && strings.TrimSpace(*q.Text) == "" {
		return nil, apperror.ValidationFailed("text", "search text must not be empty")
	}

	notes, err := s.notes.List(ctx, repository.NoteFilter{
		Scope:       policy.VisibleScope(caller),
		TagName:     q.TagName,
		TagIDs:      q.TagIDs,
		Private:     q.Private,
		Username:    q.Username,
		Text:        q.Text,
		ListOptions: repository.ListOptions{Limit: q.Limit, Offset: q.Offset},
	})
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return notes, nil
}

// Search is List with a required substring.
func (s *NoteService) Search(ctx context.Context, caller model.Caller, text string, limit, offset int) ([]model.Note, error) {
	return s.List(ctx, caller, NoteQuery{Text: &text, Limit: limit, Offset: offset})
}

// FilterByTags lists visible notes carrying at least one of tagIDs.
func (s *NoteService) FilterByTags(ctx context.Context, caller model.Caller, tagIDs []int64, private *bool, limit, offset int) ([]model.Note, error) {
	if len(tagIDs) == 0 {
		return nil, apperror.ValidationFailed("tags", "at least one tag id is required")
	}
	return s.List(ctx, caller, NoteQuery{TagIDs: tagIDs, Private: private, Limit: limit, Offset: offset})
}

// Update edits text and/or private. Only the owner may do this.
func (s *NoteService) Update(ctx context.Context, caller model.Caller, id int64, in UpdateNoteInput) (*model.Note, error) {
	note, err := s.resolve(ctx, caller, id, policy.Write)
	if err != nil {
		return nil, err
	}

	if in.Text != nil {
		text, err := validateText(*in.Text)
		if err != nil {
			return nil, err
		}
		note.Text = text
	}
	if in.Private != nil {
		note.Private = *in.Private
	}

	if err := s.notes.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("updating note %d: %w", id, err)
	}
	s.metrics.NoteOperation(metrics.OpUpdate)

	s.logger.Info("note updated", slog.Int64("id", id))
	return note, nil
}

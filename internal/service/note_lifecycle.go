package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/metrics"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/policy"
)

// NOTE LIFECYCLE:
//
//	create ──► active ──archive──► archived
//	             ▲                    │
//	             └──────restore───────┘
//
// Archived notes leave every listing but keep their tags, text and flags, so
// archive followed by restore gives back the same note. Only Purge removes a
// row for good.

// Archive moves the note to the archive. Archiving an archived note changes
// nothing and is not an error.
func (s *NoteService) Archive(ctx context.Context, caller model.Caller, id int64) (*model.Note, error) {
	note, err := s.resolve(ctx, caller, id, policy.Write)
	if err != nil {
		return nil, err
	}
	if note.Archived {
		return note, nil
	}

	if err := s.notes.SetArchived(ctx, id, true); err != nil {
		return nil, fmt.Errorf("archiving note %d: %w", id, err)
	}
	note.Archived = true
	s.metrics.NoteOperation(metrics.OpArchive)

	s.logger.Info("note archived", slog.Int64("id", id))
	return note, nil
}

// Restore brings an archived note back. The bool reports whether anything
// changed: restoring an active note returns it untouched with false.
//
// Order of checks: the note must exist, the caller must own it, then it must
// be archived.
func (s *NoteService) Restore(ctx context.Context, caller model.Caller, id int64) (*model.Note, bool, error) {
	note, err := s.resolve(ctx, caller, id, policy.Write)
	if err != nil {
		return nil, false, err
	}
	if !policy.CanRestore(caller, note) {
		return note, false, nil
	}

	if err := s.notes.SetArchived(ctx, id, false); err != nil {
		return nil, false, fmt.Errorf("restoring note %d: %w", id, err)
	}
	note.Archived = false
	s.metrics.NoteOperation(metrics.OpRestore)

	s.logger.Info("note restored", slog.Int64("id", id))
	return note, true, nil
}

// AttachTags adds tags to the note. Every id must name an existing tag or
// nothing is attached. Ids already on the note are ignored.
func (s *NoteService) AttachTags(ctx context.Context, caller model.Caller, id int64, tagIDs []int64) (*model.Note, error) {
	tagIDs, err := normalizeTagBatch(tagIDs)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolve(ctx, caller, id, policy.Write); err != nil {
		return nil, err
	}

	if err := s.notes.AttachTags(ctx, id, tagIDs); err != nil {
		return nil, err
	}
	s.metrics.NoteOperation(metrics.OpAttach)

	s.logger.Info("tags attached", slog.Int64("id", id), slog.Any("tags", tagIDs))
	return s.notes.GetByID(ctx, id)
}

// DetachTags removes tags from the note. Every id must currently be attached
// or nothing is removed.
func (s *NoteService) DetachTags(ctx context.Context, caller model.Caller, id int64, tagIDs []int64) (*model.Note, error) {
	tagIDs, err := normalizeTagBatch(tagIDs)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolve(ctx, caller, id, policy.Write); err != nil {
		return nil, err
	}

	if err := s.notes.DetachTags(ctx, id, tagIDs); err != nil {
		return nil, err
	}
	s.metrics.NoteOperation(metrics.OpDetach)

	s.logger.Info("tags detached", slog.Int64("id", id), slog.Any("tags", tagIDs))
	return s.notes.GetByID(ctx, id)
}

// Purge deletes the note row and its tag links. Admin only.
func (s *NoteService) Purge(ctx context.Context, caller model.Caller, id int64) error {
	if _, err := s.notes.GetByID(ctx, id); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return apperror.Forbidden("only an admin can purge notes")
	}

	if err := s.notes.Delete(ctx, id); err != nil {
		return fmt.Errorf("purging note %d: %w", id, err)
	}
	s.metrics.NoteOperation(metrics.OpPurge)

	s.logger.Warn("note purged", slog.Int64("id", id), slog.Int64("by", caller.UserID))
	return nil
}

// normalizeTagBatch rejects empty or non-positive ids and drops duplicates,
// keeping first-seen order.
func normalizeTagBatch(tagIDs []int64) ([]int64, error) {
	if len(tagIDs) == 0 {
		return nil, apperror.ValidationFailed("tags", "at least one tag id is required")
	}
	out := make([]int64, 0, len(tagIDs))
	for _, id := range tagIDs {
		if id <= 0 {
			return nil, apperror.ValidationFailed("tags", fmt.Sprintf("invalid tag id %d", id))
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

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

// compile-time check that *NoteDB implements repository.NoteRepository
var _ repository.NoteRepository = (*NoteDB)(nil)

// NoteDB stores notes and their tag memberships.
type NoteDB struct {
	db *DB
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanNote reads one row produced by noteSelect. Tags are loaded separately.
func scanNote(s rowScanner) (*model.Note, error) {
	var (
		n        model.Note
		u        model.User
		photoID  sql.NullInt64
		photoURL sql.NullString
	)
	if err := s.Scan(
		&n.ID, &n.OwnerID, &n.Text, &n.Private, &n.Archived,
		&u.ID, &u.Username, &u.IsStaff, &u.Role, &photoID, &photoURL,
	); err != nil {
		return nil, err
	}
	if photoID.Valid {
		u.PhotoID = &photoID.Int64
		u.Photo = &model.File{ID: photoID.Int64, URL: photoURL.String}
	}
	n.Author = &u
	n.Tags = []model.Tag{}
	return &n, nil
}

// Create inserts a new note and fills in its ID.
//
// The caller sets OwnerID, Text and Private. Archived always starts false and
// the tag set always starts empty.
func (s *NoteDB) Create(ctx context.Context, note *model.Note) error {
	result, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO note (owner_id, text, private, archived) VALUES (?, ?, ?, 0)`,
		note.OwnerID, note.Text, note.Private,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading note id: %w", err)
	}
	note.ID = id
	note.Archived = false
	note.Tags = []model.Tag{}
	return nil
}

// GetByID loads one note with its author and tags. Archived and private
// notes are returned too; deciding who may see them is the policy's job.
func (s *NoteDB) GetByID(ctx context.Context, id int64) (*model.Note, error) {
	note, err := scanNote(s.db.conn.QueryRowContext(ctx, noteSelect+` WHERE n.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("note", id)
		}
		return nil, fmt.Errorf("sqlite: getting note %d: %w", id, err)
	}

	if err := loadTags(ctx, s.db.conn, []*model.Note{note}); err != nil {
		return nil, err
	}
	return note, nil
}

// List runs the filter built by buildNoteQuery.
//
// The rows are fully read and closed before the tags are loaded: with a
// single pooled connection, a second query while rows are open would block.
func (s *NoteDB) List(ctx context.Context, filter repository.NoteFilter) ([]model.Note, error) {
	query, args := buildNoteQuery(filter)

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notes: %w", err)
	}

	var ptrs []*model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning note row: %w", err)
		}
		ptrs = append(ptrs, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterating notes: %w", err)
	}
	rows.Close()

	if err := loadTags(ctx, s.db.conn, ptrs); err != nil {
		return nil, err
	}

	notes := make([]model.Note, 0, len(ptrs))
	for _, n := range ptrs {
		notes = append(notes, *n)
	}
	return notes, nil
}

// loadTags fills the Tags of every note with one query.
func loadTags(ctx context.Context, q querier, notes []*model.Note) error {
	if len(notes) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Note, len(notes))
	args := make([]any, 0, len(notes))
	for _, n := range notes {
		byID[n.ID] = n
		args = append(args, n.ID)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT nt.note_id, t.id, t.name
		 FROM note_tags nt
		 JOIN tag t ON t.id = nt.tag_id
		 WHERE nt.note_id IN (`+placeholders(len(args))+`)
		 ORDER BY t.id`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading note tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			noteID int64
			tag    model.Tag
		)
		if err := rows.Scan(&noteID, &tag.ID, &tag.Name); err != nil {
			return fmt.Errorf("sqlite: scanning note tag: %w", err)
		}
		if n, ok := byID[noteID]; ok {
			n.Tags = append(n.Tags, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating note tags: %w", err)
	}
	return nil
}

// Update writes the editable fields: text and private. Owner and archive
// state are not touched here.
func (s *NoteDB) Update(ctx context.Context, note *model.Note) error {
	result, err := s.db.conn.ExecContext(ctx,
		`UPDATE note SET text = ?, private = ? WHERE id = ?`,
		note.Text, note.Private, note.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating note %d: %w", note.ID, err)
	}
	return checkAffected(result, func() error { return apperror.NotFound("note", note.ID) })
}

// SetArchived moves a note in or out of the archive.
func (s *NoteDB) SetArchived(ctx context.Context, id int64, archived bool) error {
	result, err := s.db.conn.ExecContext(ctx,
		`UPDATE note SET archived = ? WHERE id = ?`,
		archived, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: archiving note %d: %w", id, err)
	}
	return checkAffected(result, func() error { return apperror.NotFound("note", id) })
}

// AttachTags adds the tags to the note in one transaction.
//
// Every tag id is checked first; the first unknown id aborts the batch with
// NotFound and nothing is inserted. Tags that are already attached are kept
// as they are (INSERT OR IGNORE).
func (s *NoteDB) AttachTags(ctx context.Context, noteID int64, tagIDs []int64) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := noteExists(ctx, tx, noteID); err != nil {
			return err
		}

		for _, tagID := range tagIDs {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM tag WHERE id = ?`, tagID).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("tag", tagID)
			}
			if err != nil {
				return fmt.Errorf("sqlite: checking tag %d: %w", tagID, err)
			}
		}

		for _, tagID := range tagIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO note_tags (note_id, tag_id) VALUES (?, ?)`,
				noteID, tagID,
			); err != nil {
				return fmt.Errorf("sqlite: attaching tag %d to note %d: %w", tagID, noteID, err)
			}
		}
		return nil
	})
}

// DetachTags removes the tags from the note, all or nothing.
//
// The whole batch is validated against the current tag set before any row is
// deleted. One id that is not attached fails the batch with a validation
// error, and the rollback leaves the tag set exactly as it was.
func (s *NoteDB) DetachTags(ctx context.Context, noteID int64, tagIDs []int64) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := noteExists(ctx, tx, noteID); err != nil {
			return err
		}

		for _, tagID := range tagIDs {
			var attached int
			err := tx.QueryRowContext(ctx,
				`SELECT 1 FROM note_tags WHERE note_id = ? AND tag_id = ?`,
				noteID, tagID,
			).Scan(&attached)
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.ValidationFailed("tags",
					fmt.Sprintf("tag %d is not attached to note %d", tagID, noteID))
			}
			if err != nil {
				return fmt.Errorf("sqlite: checking tag %d on note %d: %w", tagID, noteID, err)
			}
		}

		for _, tagID := range tagIDs {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM note_tags WHERE note_id = ? AND tag_id = ?`,
				noteID, tagID,
			); err != nil {
				return fmt.Errorf("sqlite: detaching tag %d from note %d: %w", tagID, noteID, err)
			}
		}
		return nil
	})
}

// Delete physically removes a note. Its note_tags rows go with it (cascade).
func (s *NoteDB) Delete(ctx context.Context, id int64) error {
	result, err := s.db.conn.ExecContext(ctx, `DELETE FROM note WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting note %d: %w", id, err)
	}
	return checkAffected(result, func() error { return apperror.NotFound("note", id) })
}

func noteExists(ctx context.Context, q querier, id int64) error {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM note WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("note", id)
	}
	if err != nil {
		return fmt.Errorf("sqlite: checking note %d: %w", id, err)
	}
	return nil
}

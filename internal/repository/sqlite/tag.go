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

var _ repository.TagRepository = (*TagDB)(nil)

// TagDB stores tags. Tags outlive the notes they label and vice versa.
type TagDB struct {
	db *DB
}

func (s *TagDB) Create(ctx context.Context, tag *model.Tag) error {
	result, err := s.db.conn.ExecContext(ctx, `INSERT INTO tag (name) VALUES (?)`, tag.Name)
	if err != nil {
		return fmt.Errorf("sqlite: creating tag: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading tag id: %w", err)
	}
	tag.ID = id
	return nil
}

func (s *TagDB) GetByID(ctx context.Context, id int64) (*model.Tag, error) {
	var t model.Tag
	err := s.db.conn.QueryRowContext(ctx, `SELECT id, name FROM tag WHERE id = ?`, id).
		Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlite: getting tag %d: %w", id, err)
	}
	return &t, nil
}

func (s *TagDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Tag, error) {
	limit, offset := clampPage(opts)

	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, name FROM tag ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	tags := make([]model.Tag, 0, limit)
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}
	return tags, nil
}

func (s *TagDB) Update(ctx context.Context, tag *model.Tag) error {
	result, err := s.db.conn.ExecContext(ctx, `UPDATE tag SET name = ? WHERE id = ?`, tag.Name, tag.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating tag %d: %w", tag.ID, err)
	}
	return checkAffected(result, func() error { return apperror.NotFound("tag", tag.ID) })
}

// Delete removes the tag and, through the cascade, its note_tags rows.
// The notes themselves are untouched.
func (s *TagDB) Delete(ctx context.Context, id int64) error {
	result, err := s.db.conn.ExecContext(ctx, `DELETE FROM tag WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting tag %d: %w", id, err)
	}
	return checkAffected(result, func() error { return apperror.NotFound("tag", id) })
}

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

var _ repository.FileRepository = (*FileDB)(nil)

// FileDB records stored uploads. The bytes live on disk; only the URL is kept here.
type FileDB struct {
	db *DB
}

func (s *FileDB) Create(ctx context.Context, file *model.File) error {
	result, err := s.db.conn.ExecContext(ctx, `INSERT INTO file (url) VALUES (?)`, file.URL)
	if err != nil {
		return fmt.Errorf("sqlite: creating file: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading file id: %w", err)
	}
	file.ID = id
	return nil
}

func (s *FileDB) GetByID(ctx context.Context, id int64) (*model.File, error) {
	var f model.File
	err := s.db.conn.QueryRowContext(ctx, `SELECT id, url FROM file WHERE id = ?`, id).
		Scan(&f.ID, &f.URL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("file", id)
		}
		return nil, fmt.Errorf("sqlite: getting file %d: %w", id, err)
	}
	return &f, nil
}

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/xid"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

// FileService stores uploaded images on local disk and records their URL.
//
// WHY SNIFF INSTEAD OF TRUSTING Content-Type?
// The multipart Content-Type and the file extension are chosen by the client.
// mimetype reads the magic bytes, so a script renamed to photo.png is still
// rejected.
//
// WHY xid FOR FILE NAMES?
// The client's file name is never used on disk. xid gives short, unique,
// URL-safe names without coordination, e.g. "9m4e2mr0ui3e8a215n4g.png".
type FileService struct {
	files     repository.FileRepository
	dir       string
	urlPrefix string
	maxBytes  int64
	logger    *slog.Logger
}

func NewFileService(files repository.FileRepository, dir, urlPrefix string, maxBytes int64, logger *slog.Logger) *FileService {
	return &FileService{
		files:     files,
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Upload reads an image from r, writes it under the upload directory and
// returns the stored File.
func (s *FileService) Upload(ctx context.Context, caller model.Caller, r io.Reader) (*model.File, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required to upload files")
	}

	// Read one byte past the limit so "exactly maxBytes" is still accepted.
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperror.ValidationFailed("image",
			fmt.Sprintf("image must be %d bytes or less", s.maxBytes))
	}
	if len(data) == 0 {
		return nil, apperror.ValidationFailed("image", "image is empty")
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, apperror.ValidationFailed("image",
			fmt.Sprintf("file must be an image, got %s", mtype.String()))
	}

	name := xid.New().String() + mtype.Extension()
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing upload: %w", err)
	}

	file := &model.File{URL: s.urlPrefix + "/" + name}
	if err := s.files.Create(ctx, file); err != nil {
		os.Remove(filepath.Join(s.dir, name))
		return nil, fmt.Errorf("recording upload: %w", err)
	}

	s.logger.Info("file uploaded",
		slog.Int64("id", file.ID),
		slog.String("type", mtype.String()),
		slog.Int("bytes", len(data)),
		slog.Int64("by", caller.UserID),
	)
	return file, nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

// TagService manages the shared tag vocabulary. Reading is public; every
// mutation is admin only.
type TagService struct {
	tags   repository.TagRepository
	logger *slog.Logger
}

func NewTagService(tags repository.TagRepository, logger *slog.Logger) *TagService {
	return &TagService{tags: tags, logger: logger}
}

func validateTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "tag name is required")
	}
	if utf8.RuneCountInString(name) > MaxTagNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("tag name must be %d characters or less", MaxTagNameLength))
	}
	return name, nil
}

func (s *TagService) List(ctx context.Context, limit, offset int) ([]model.Tag, error) {
	tags, err := s.tags.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) Get(ctx context.Context, id int64) (*model.Tag, error) {
	return s.tags.GetByID(ctx, id)
}

func (s *TagService) Create(ctx context.Context, caller model.Caller, name string) (*model.Tag, error) {
	if !caller.IsAdmin() {
		return nil, apperror.Forbidden("only an admin can create tags")
	}
	name, err := validateTagName(name)
	if err != nil {
		return nil, err
	}

	tag := &model.Tag{Name: name}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}
	s.logger.Info("tag created", slog.Int64("id", tag.ID), slog.String("name", name))
	return tag, nil
}

func (s *TagService) Rename(ctx context.Context, caller model.Caller, id int64, name string) (*model.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, apperror.Forbidden("only an admin can rename tags")
	}
	if tag.Name, err = validateTagName(name); err != nil {
		return nil, err
	}

	if err := s.tags.Update(ctx, tag); err != nil {
		return nil, fmt.Errorf("renaming tag %d: %w", id, err)
	}
	return tag, nil
}

// Delete removes the tag from the vocabulary and from every note carrying it.
func (s *TagService) Delete(ctx context.Context, caller model.Caller, id int64) error {
	if _, err := s.tags.GetByID(ctx, id); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return apperror.Forbidden("only an admin can delete tags")
	}

	if err := s.tags.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting tag %d: %w", id, err)
	}
	s.logger.Info("tag deleted", slog.Int64("id", id))
	return nil
}

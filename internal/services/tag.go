package services

import (
	"context"

	"github.com/inkwell-app/apiserver/internal/store"
	"github.com/inkwell-app/apiserver/types"
)

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	Get(ctx context.Context, id int) (types.Tag, error)
	List(ctx context.Context) ([]types.Tag, error)
	Create(ctx context.Context, tag types.Tag) (types.Tag, error)
	Update(ctx context.Context, tag types.Tag) (types.Tag, error)
	Delete(ctx context.Context, id int) error
}

// BookTagRepository attaches and detaches tags on books. Both operations
// are idempotent.
type BookTagRepository interface {
	AddTags(ctx context.Context, bookID int, tagIDs []int64) error
	RemoveTags(ctx context.Context, bookID int, tagIDs []int64) error
}

// TagService encapsulates tag use-cases. Tags are a shared vocabulary:
// any user may create one, but renaming, deleting and attaching them to
// books is moderation work.
type TagService struct {
	repo  TagRepository
	books BookTagRepository
}

func NewTagService(repo TagRepository, books BookTagRepository) *TagService {
	return &TagService{repo: repo, books: books}
}

// Create inserts a tag. A duplicate name surfaces as a conflict.
func (s *TagService) Create(ctx context.Context, tag types.Tag) (types.Tag, error) {
	return s.repo.Create(ctx, tag)
}

// Get returns a single tag.
func (s *TagService) Get(ctx context.Context, id int) (types.Tag, error) {
	return s.repo.Get(ctx, id)
}

// List returns every tag. An empty vocabulary reads as not found.
func (s *TagService) List(ctx context.Context) ([]types.Tag, error) {
	tags, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, store.ErrNotFound
	}
	return tags, nil
}

// Update renames a tag. Admin only.
func (s *TagService) Update(ctx context.Context, actor types.User, tagID int, name string) (types.Tag, error) {
	if !CanModerate(actor) {
		return types.Tag{}, ErrForbidden
	}
	tag, err := s.repo.Get(ctx, tagID)
	if err != nil {
		return types.Tag{}, err
	}
	tag.TagName = name
	return s.repo.Update(ctx, tag)
}

// Delete removes a tag from the vocabulary and, via cascade, from every
// book carrying it. Admin only.
func (s *TagService) Delete(ctx context.Context, actor types.User, tagID int) (types.Tag, error) {
	if !CanModerate(actor) {
		return types.Tag{}, ErrForbidden
	}
	tag, err := s.repo.Get(ctx, tagID)
	if err != nil {
		return types.Tag{}, err
	}
	if err := s.repo.Delete(ctx, tagID); err != nil {
		return types.Tag{}, err
	}
	return tag, nil
}

// AddToBook attaches tags to a book. Already-attached tags are skipped.
// Admin only.
func (s *TagService) AddToBook(ctx context.Context, actor types.User, bookID int, tagIDs []int64) error {
	if !CanModerate(actor) {
		return ErrForbidden
	}
	return s.books.AddTags(ctx, bookID, tagIDs)
}

// RemoveFromBook detaches tags from a book. Absent tags are skipped.
// Admin only.
func (s *TagService) RemoveFromBook(ctx context.Context, actor types.User, bookID int, tagIDs []int64) error {
	if !CanModerate(actor) {
		return ErrForbidden
	}
	return s.books.RemoveTags(ctx, bookID, tagIDs)
}

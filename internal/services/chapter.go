package services

import (
	"context"

	"github.com/inkwell-app/apiserver/internal/store"
	"github.com/inkwell-app/apiserver/types"
)

// ChapterRepository defines persistence operations for chapters.
type ChapterRepository interface {
	Get(ctx context.Context, id int) (types.Chapter, error)
	ListByBook(ctx context.Context, bookID int) ([]types.Chapter, error)
	Create(ctx context.Context, chapter types.Chapter) (types.Chapter, error)
	Update(ctx context.Context, chapter types.Chapter) (types.Chapter, error)
	Delete(ctx context.Context, id int) error
}

// BookGetter loads a single book, used for ownership checks.
type BookGetter interface {
	Get(ctx context.Context, id int) (types.Book, error)
}

// ChapterService encapsulates chapter use-cases.
type ChapterService struct {
	repo   ChapterRepository
	books  BookGetter
	events *EventPublisher
}

func NewChapterService(repo ChapterRepository, books BookGetter, events *EventPublisher) *ChapterService {
	return &ChapterService{repo: repo, books: books, events: events}
}

// Create inserts a chapter into a book the actor owns. Line breaks in the
// content are normalized before storage; a duplicate chapter number within
// the book surfaces as a conflict.
func (s *ChapterService) Create(ctx context.Context, actor types.User, chapter types.Chapter) (types.Chapter, error) {
	book, err := s.books.Get(ctx, chapter.BookID)
	if err != nil {
		return types.Chapter{}, err
	}
	if !CanModify(actor, book.UserID) {
		return types.Chapter{}, ErrForbidden
	}

	chapter.UserID = actor.ID
	chapter.Content = normalizeLineBreaks(chapter.Content)

	created, err := s.repo.Create(ctx, chapter)
	if err != nil {
		return types.Chapter{}, err
	}

	s.events.Publish(ctx, ActivityEvent{
		Type:       EventChapterCreated,
		UserID:     actor.ID,
		BookID:     chapter.BookID,
		ResourceID: created.ID,
	})
	return created, nil
}

// Get returns a single chapter.
func (s *ChapterService) Get(ctx context.Context, id int) (types.Chapter, error) {
	return s.repo.Get(ctx, id)
}

// ListByBook returns a book's chapters ordered by chapter number. A book
// with no chapters reads as not found.
func (s *ChapterService) ListByBook(ctx context.Context, bookID int) ([]types.Chapter, error) {
	chapters, err := s.repo.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if len(chapters) == 0 {
		return nil, store.ErrNotFound
	}
	return chapters, nil
}

// Update replaces the chapter's mutable fields. Only the owner may update.
func (s *ChapterService) Update(ctx context.Context, actor types.User, chapterID int, updated types.Chapter) (types.Chapter, error) {
	chapter, err := s.repo.Get(ctx, chapterID)
	if err != nil {
		return types.Chapter{}, err
	}
	if !CanModify(actor, chapter.UserID) {
		return types.Chapter{}, ErrForbidden
	}

	chapter.Title = updated.Title
	chapter.Content = normalizeLineBreaks(updated.Content)
	chapter.ChapterNumber = updated.ChapterNumber

	return s.repo.Update(ctx, chapter)
}

// Patch assigns a single named property. Only the owner may patch.
func (s *ChapterService) Patch(ctx context.Context, actor types.User, chapterID int, property string, value any) (types.Chapter, error) {
	chapter, err := s.repo.Get(ctx, chapterID)
	if err != nil {
		return types.Chapter{}, err
	}
	if !CanModify(actor, chapter.UserID) {
		return types.Chapter{}, ErrForbidden
	}

	setter, ok := chapterPatchSetters[property]
	if !ok {
		return types.Chapter{}, ErrInvalidProperty
	}
	if err := setter(&chapter, value); err != nil {
		return types.Chapter{}, err
	}

	return s.repo.Update(ctx, chapter)
}

// Delete removes a chapter. The owner may delete; admins may override.
func (s *ChapterService) Delete(ctx context.Context, actor types.User, chapterID int) (types.Chapter, error) {
	chapter, err := s.repo.Get(ctx, chapterID)
	if err != nil {
		return types.Chapter{}, err
	}
	if !CanDelete(actor, chapter.UserID) {
		return types.Chapter{}, ErrForbidden
	}
	if err := s.repo.Delete(ctx, chapterID); err != nil {
		return types.Chapter{}, err
	}
	return chapter, nil
}

// chapterPatchSetters is the closed set of patchable chapter properties.
var chapterPatchSetters = map[string]func(*types.Chapter, any) error{
	"title": func(c *types.Chapter, v any) error {
		return patchString(&c.Title, v)
	},
	"content": func(c *types.Chapter, v any) error {
		if err := patchString(&c.Content, v); err != nil {
			return err
		}
		c.Content = normalizeLineBreaks(c.Content)
		return nil
	},
	"chapterNumber": func(c *types.Chapter, v any) error {
		number, ok := v.(float64)
		if !ok || number != float64(int(number)) {
			return ErrInvalidProperty
		}
		c.ChapterNumber = int(number)
		return nil
	},
}

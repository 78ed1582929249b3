package services

import (
	"context"

	"github.com/inkwell-app/apiserver/types"
)

// BookRepository defines persistence operations for books.
type BookRepository interface {
	List(ctx context.Context) ([]types.Book, error)
	ListByUser(ctx context.Context, userID int) ([]types.Book, error)
	ListByTags(ctx context.Context, tagIDs []int64) ([]types.Book, error)
	Get(ctx context.Context, id int) (types.Book, error)
	Create(ctx context.Context, book types.Book) (types.Book, error)
	Update(ctx context.Context, book types.Book) (types.Book, error)
	Delete(ctx context.Context, id int) error
}

// ChapterLister loads the chapters of a book, used to enrich listings.
type ChapterLister interface {
	ListByBook(ctx context.Context, bookID int) ([]types.Chapter, error)
}

// ReviewLister loads the reviews of a book, used to enrich detail reads.
type ReviewLister interface {
	ListByBook(ctx context.Context, bookID int) ([]types.Review, error)
}

// BookService encapsulates book use-cases: creation, visibility-filtered
// listings, guarded mutation.
type BookService struct {
	repo     BookRepository
	chapters ChapterLister
	reviews  ReviewLister
	events   *EventPublisher
}

func NewBookService(repo BookRepository, chapters ChapterLister, reviews ReviewLister, events *EventPublisher) *BookService {
	return &BookService{
		repo:     repo,
		chapters: chapters,
		reviews:  reviews,
		events:   events,
	}
}

const defaultFont = "Times New Roman, Arial, sans-serif"

func validPrivacy(privacy string) bool {
	switch privacy {
	case types.PrivacyPublic, types.PrivacyPrivate, types.PrivacyLimited:
		return true
	}
	return false
}

// Create inserts a book owned by the acting user.
func (s *BookService) Create(ctx context.Context, actor types.User, book types.Book) (types.Book, error) {
	book.UserID = actor.ID
	if book.Privacy == "" {
		book.Privacy = types.PrivacyPublic
	}
	if !validPrivacy(book.Privacy) {
		return types.Book{}, ErrInvalidPrivacy
	}
	if book.TitleFont == "" {
		book.TitleFont = defaultFont
	}
	if book.ContentFont == "" {
		book.ContentFont = defaultFont
	}

	created, err := s.repo.Create(ctx, book)
	if err != nil {
		return types.Book{}, err
	}

	s.events.Publish(ctx, ActivityEvent{
		Type:       EventBookCreated,
		UserID:     actor.ID,
		BookID:     created.ID,
		ResourceID: created.ID,
	})
	return created, nil
}

// ListAll returns every book the viewer may see, each enriched with its
// chapters. A nil viewer is anonymous.
func (s *BookService) ListAll(ctx context.Context, viewer *types.User) ([]types.Book, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := VisibleBooks(books, viewer)
	for i := range visible {
		chapters, err := s.chapters.ListByBook(ctx, visible[i].ID)
		if err != nil {
			return nil, err
		}
		visible[i].Chapters = chapters
	}
	return visible, nil
}

// ListByAuthor returns the given author's books the viewer may see.
func (s *BookService) ListByAuthor(ctx context.Context, authorID int, viewer *types.User) ([]types.Book, error) {
	books, err := s.repo.ListByUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return VisibleBooks(books, viewer), nil
}

// Get returns a single book enriched with its reviews.
func (s *BookService) Get(ctx context.Context, id int) (types.Book, error) {
	book, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Book{}, err
	}
	reviews, err := s.reviews.ListByBook(ctx, id)
	if err != nil {
		return types.Book{}, err
	}
	book.Reviews = reviews
	return book, nil
}

// ListByTags returns every book whose tag set intersects the requested
// identifiers. No visibility filtering is composed in; callers needing
// both must pass the result through VisibleBooks.
func (s *BookService) ListByTags(ctx context.Context, tagIDs []int64) ([]types.Book, error) {
	return s.repo.ListByTags(ctx, tagIDs)
}

// Update replaces the book's mutable fields. Only the owner may update.
func (s *BookService) Update(ctx context.Context, actor types.User, bookID int, updated types.Book) (types.Book, error) {
	book, err := s.repo.Get(ctx, bookID)
	if err != nil {
		return types.Book{}, err
	}
	if !CanModify(actor, book.UserID) {
		return types.Book{}, ErrForbidden
	}
	if !validPrivacy(updated.Privacy) {
		return types.Book{}, ErrInvalidPrivacy
	}

	book.Author = updated.Author
	book.Title = updated.Title
	book.Description = updated.Description
	book.TitleFont = updated.TitleFont
	book.ContentFont = updated.ContentFont
	book.Privacy = updated.Privacy
	book.CanRate = updated.CanRate
	book.CanReview = updated.CanReview
	book.AllowedUsers = updated.AllowedUsers
	book.Archived = updated.Archived

	return s.repo.Update(ctx, book)
}

// Patch assigns a single named property. Only the owner may patch; names
// outside the permitted set are rejected.
func (s *BookService) Patch(ctx context.Context, actor types.User, bookID int, property string, value any) (types.Book, error) {
	book, err := s.repo.Get(ctx, bookID)
	if err != nil {
		return types.Book{}, err
	}
	if !CanModify(actor, book.UserID) {
		return types.Book{}, ErrForbidden
	}

	setter, ok := bookPatchSetters[property]
	if !ok {
		return types.Book{}, ErrInvalidProperty
	}
	if err := setter(&book, value); err != nil {
		return types.Book{}, err
	}

	return s.repo.Update(ctx, book)
}

// Delete removes a book. The owner may delete; admins may override.
func (s *BookService) Delete(ctx context.Context, actor types.User, bookID int) (types.Book, error) {
	book, err := s.repo.Get(ctx, bookID)
	if err != nil {
		return types.Book{}, err
	}
	if !CanDelete(actor, book.UserID) {
		return types.Book{}, ErrForbidden
	}
	if err := s.repo.Delete(ctx, bookID); err != nil {
		return types.Book{}, err
	}
	return book, nil
}

// bookPatchSetters is the closed set of patchable book properties. Each
// setter validates the incoming value's type; string fields additionally
// require the current value to be non-empty, matching the structured
// patch contract (zero/false values are patchable, empty strings are not
// considered present).
var bookPatchSetters = map[string]func(*types.Book, any) error{
	"author": func(b *types.Book, v any) error {
		return patchString(&b.Author, v)
	},
	"title": func(b *types.Book, v any) error {
		return patchString(&b.Title, v)
	},
	"description": func(b *types.Book, v any) error {
		return patchString(&b.Description, v)
	},
	"titleFont": func(b *types.Book, v any) error {
		return patchString(&b.TitleFont, v)
	},
	"contentFont": func(b *types.Book, v any) error {
		return patchString(&b.ContentFont, v)
	},
	"privacy": func(b *types.Book, v any) error {
		s, ok := v.(string)
		if !ok || !validPrivacy(s) {
			return ErrInvalidProperty
		}
		b.Privacy = s
		return nil
	},
	"canRate": func(b *types.Book, v any) error {
		return patchBool(&b.CanRate, v)
	},
	"canReview": func(b *types.Book, v any) error {
		return patchBool(&b.CanReview, v)
	},
	"allowedUsers": func(b *types.Book, v any) error {
		ids, err := toInt64Slice(v)
		if err != nil {
			return err
		}
		b.AllowedUsers = ids
		return nil
	},
	"archived": func(b *types.Book, v any) error {
		return patchBool(&b.Archived, v)
	},
}

func patchString(target *string, v any) error {
	s, ok := v.(string)
	if !ok {
		return ErrInvalidProperty
	}
	if *target == "" {
		return ErrInvalidProperty
	}
	*target = s
	return nil
}

func patchBool(target *bool, v any) error {
	b, ok := v.(bool)
	if !ok {
		return ErrInvalidProperty
	}
	*target = b
	return nil
}

// toInt64Slice coerces a decoded JSON array of numbers into identifiers.
func toInt64Slice(v any) ([]int64, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, ErrInvalidProperty
	}
	ids := make([]int64, 0, len(raw))
	for _, item := range raw {
		number, ok := item.(float64)
		if !ok || number != float64(int64(number)) {
			return nil, ErrInvalidProperty
		}
		ids = append(ids, int64(number))
	}
	return ids, nil
}

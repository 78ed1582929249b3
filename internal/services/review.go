package services

import (
	"context"

	"github.com/inkwell-app/apiserver/types"
)

// ReviewRepository defines persistence operations for reviews. Create,
// Update and Delete also refresh the owning book's aggregate rating.
type ReviewRepository interface {
	Get(ctx context.Context, id int) (types.Review, error)
	ListByBook(ctx context.Context, bookID int) ([]types.Review, error)
	Create(ctx context.Context, review types.Review) (types.Review, error)
	Update(ctx context.Context, review types.Review) (types.Review, error)
	Delete(ctx context.Context, id int) error
}

// ReviewService encapsulates review use-cases.
type ReviewService struct {
	repo   ReviewRepository
	events *EventPublisher
}

func NewReviewService(repo ReviewRepository, events *EventPublisher) *ReviewService {
	return &ReviewService{repo: repo, events: events}
}

func validRating(rating int) bool {
	return rating >= types.MinRating && rating <= types.MaxRating
}

// Create inserts the actor's review of a book. Each user reviews a book at
// most once; a second attempt surfaces as a conflict.
func (s *ReviewService) Create(ctx context.Context, actor types.User, review types.Review) (types.Review, error) {
	if !validRating(review.Rating) {
		return types.Review{}, ErrInvalidRating
	}

	review.UserID = actor.ID
	review.Comment = normalizeLineBreaks(review.Comment)

	created, err := s.repo.Create(ctx, review)
	if err != nil {
		return types.Review{}, err
	}

	s.events.Publish(ctx, ActivityEvent{
		Type:       EventReviewCreated,
		UserID:     actor.ID,
		BookID:     review.BookID,
		ResourceID: created.ID,
	})
	return created, nil
}

// Get returns a single review.
func (s *ReviewService) Get(ctx context.Context, id int) (types.Review, error) {
	return s.repo.Get(ctx, id)
}

// ListByBook returns a book's reviews, each carrying the reviewer's
// username. An empty result is valid.
func (s *ReviewService) ListByBook(ctx context.Context, bookID int) ([]types.Review, error) {
	return s.repo.ListByBook(ctx, bookID)
}

// Patch assigns a single named property of an existing review.
func (s *ReviewService) Patch(ctx context.Context, reviewID int, property string, value any) (types.Review, error) {
	review, err := s.repo.Get(ctx, reviewID)
	if err != nil {
		return types.Review{}, err
	}

	setter, ok := reviewPatchSetters[property]
	if !ok {
		return types.Review{}, ErrInvalidProperty
	}
	if err := setter(&review, value); err != nil {
		return types.Review{}, err
	}

	return s.repo.Update(ctx, review)
}

// reviewPatchSetters is the closed set of patchable review properties.
var reviewPatchSetters = map[string]func(*types.Review, any) error{
	"rating": func(rev *types.Review, v any) error {
		number, ok := v.(float64)
		if !ok || number != float64(int(number)) {
			return ErrInvalidProperty
		}
		if !validRating(int(number)) {
			return ErrInvalidRating
		}
		rev.Rating = int(number)
		return nil
	},
	"comment": func(rev *types.Review, v any) error {
		if err := patchString(&rev.Comment, v); err != nil {
			return err
		}
		rev.Comment = normalizeLineBreaks(rev.Comment)
		return nil
	},
}

// Update replaces a review's rating and comment. Any authenticated user
// may update an existing review; only existence is checked.
func (s *ReviewService) Update(ctx context.Context, reviewID int, rating int, comment string) (types.Review, error) {
	if !validRating(rating) {
		return types.Review{}, ErrInvalidRating
	}

	review, err := s.repo.Get(ctx, reviewID)
	if err != nil {
		return types.Review{}, err
	}
	review.Rating = rating
	review.Comment = normalizeLineBreaks(comment)

	return s.repo.Update(ctx, review)
}

// Delete removes a review. The author may delete; admins may override.
func (s *ReviewService) Delete(ctx context.Context, actor types.User, reviewID int) (types.Review, error) {
	review, err := s.repo.Get(ctx, reviewID)
	if err != nil {
		return types.Review{}, err
	}
	if !CanDelete(actor, review.UserID) {
		return types.Review{}, ErrForbidden
	}
	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return types.Review{}, err
	}
	return review, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkwell-app/apiserver/types"
)

// ReviewRepository handles persistence for reviews and the derived
// book rating.
type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Get(ctx context.Context, id int) (types.Review, error) {
	const query = `
		SELECT id, user_id, book_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE id = $1`
	var review types.Review
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&review.ID,
		&review.UserID,
		&review.BookID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Review{}, ErrNotFound
		}
		return types.Review{}, err
	}
	return review, nil
}

// ListByBook returns all reviews for a book with the reviewer's username
// joined in.
func (r *ReviewRepository) ListByBook(ctx context.Context, bookID int) ([]types.Review, error) {
	const query = `
		SELECT r.id, r.user_id, r.book_id, r.rating, r.comment, r.created_at, r.updated_at, u.username
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.book_id = $1
		ORDER BY r.id`
	rows, err := r.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]types.Review, 0)
	for rows.Next() {
		var review types.Review
		if err := rows.Scan(
			&review.ID,
			&review.UserID,
			&review.BookID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
			&review.UpdatedAt,
			&review.Username,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Create inserts a review and recomputes the book's average rating in the
// same transaction, so no state is visible where a review exists but the
// cached rating is stale. A duplicate (user_id, book_id) pair is reported
// as ErrConflict and nothing is written.
func (r *ReviewRepository) Create(ctx context.Context, review types.Review) (types.Review, error) {
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Review{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertQuery = `
		INSERT INTO reviews (user_id, book_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		insertQuery,
		review.UserID,
		review.BookID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	).Scan(&review.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Review{}, ErrConflict
		}
		return types.Review{}, err
	}

	if err := recomputeBookRating(ctx, tx, review.BookID); err != nil {
		return types.Review{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) Update(ctx context.Context, review types.Review) (types.Review, error) {
	review.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Review{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
		UPDATE reviews
		SET rating = $1,
			comment = $2,
			updated_at = $3
		WHERE id = $4
		RETURNING user_id, book_id, created_at`
	if err := tx.QueryRowContext(
		ctx,
		query,
		review.Rating,
		review.Comment,
		review.UpdatedAt,
		review.ID,
	).Scan(&review.UserID, &review.BookID, &review.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Review{}, ErrNotFound
		}
		return types.Review{}, err
	}

	if err := recomputeBookRating(ctx, tx, review.BookID); err != nil {
		return types.Review{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `DELETE FROM reviews WHERE id = $1 RETURNING book_id`
	var bookID int
	if err := tx.QueryRowContext(ctx, query, id).Scan(&bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := recomputeBookRating(ctx, tx, bookID); err != nil {
		return err
	}

	return tx.Commit()
}

// recomputeBookRating sets books.rating to the mean of the book's review
// ratings, or NULL when none remain.
func recomputeBookRating(ctx context.Context, tx *sql.Tx, bookID int) error {
	const query = `
		UPDATE books
		SET rating = (SELECT AVG(rating) FROM reviews WHERE book_id = $1),
			updated_at = $2
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, query, bookID, time.Now())
	return err
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkwell-app/apiserver/types"
	"github.com/lib/pq"
)

// BookRepository handles persistence for books and their tag associations.
type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

// Tag identifiers are aggregated from the book_tags join table so a single
// query returns the full record.
const bookColumns = `
	b.id, b.user_id, b.author, b.title, b.description, b.title_font, b.content_font,
	b.privacy, b.can_rate, b.can_review, b.rating, b.allowed_users, b.cover_picture,
	b.archived, b.created_at, b.updated_at,
	(SELECT COALESCE(array_agg(bt.tag_id ORDER BY bt.tag_id), '{}')
	 FROM book_tags bt WHERE bt.book_id = b.id) AS tags`

type bookScanner interface {
	Scan(dest ...any) error
}

func scanBook(row bookScanner) (types.Book, error) {
	var book types.Book
	var rating sql.NullFloat64
	var allowedUsers, tags pq.Int64Array
	err := row.Scan(
		&book.ID,
		&book.UserID,
		&book.Author,
		&book.Title,
		&book.Description,
		&book.TitleFont,
		&book.ContentFont,
		&book.Privacy,
		&book.CanRate,
		&book.CanReview,
		&rating,
		&allowedUsers,
		&book.CoverPicture,
		&book.Archived,
		&book.CreatedAt,
		&book.UpdatedAt,
		&tags,
	)
	if err != nil {
		return types.Book{}, err
	}
	if rating.Valid {
		book.Rating = &rating.Float64
	}
	book.AllowedUsers = []int64(allowedUsers)
	book.Tags = []int64(tags)
	return book, nil
}

func (r *BookRepository) collectBooks(rows *sql.Rows) ([]types.Book, error) {
	defer rows.Close()

	books := make([]types.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// List returns every book in the store's natural order.
func (r *BookRepository) List(ctx context.Context) ([]types.Book, error) {
	const query = `
		SELECT ` + bookColumns + `
		FROM books b
		ORDER BY b.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.collectBooks(rows)
}

// ListByUser returns every book owned by the given user.
func (r *BookRepository) ListByUser(ctx context.Context, userID int) ([]types.Book, error) {
	const query = `
		SELECT ` + bookColumns + `
		FROM books b
		WHERE b.user_id = $1
		ORDER BY b.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return r.collectBooks(rows)
}

// ListByTags returns every book whose tag set intersects the given
// identifiers. Intersection, not subset: one matching tag is enough.
func (r *BookRepository) ListByTags(ctx context.Context, tagIDs []int64) ([]types.Book, error) {
	const query = `
		SELECT DISTINCT ` + bookColumns + `
		FROM books b
		JOIN book_tags m ON m.book_id = b.id
		WHERE m.tag_id = ANY($1)
		ORDER BY b.id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(tagIDs))
	if err != nil {
		return nil, err
	}
	return r.collectBooks(rows)
}

func (r *BookRepository) Get(ctx context.Context, id int) (types.Book, error) {
	const query = `
		SELECT ` + bookColumns + `
		FROM books b
		WHERE b.id = $1`
	book, err := scanBook(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Book{}, ErrNotFound
		}
		return types.Book{}, err
	}
	return book, nil
}

func (r *BookRepository) Create(ctx context.Context, book types.Book) (types.Book, error) {
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now

	const query = `
		INSERT INTO books (
			user_id, author, title, description, title_font, content_font,
			privacy, can_rate, can_review, rating, allowed_users, cover_picture,
			archived, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	var rating sql.NullFloat64
	if book.Rating != nil {
		rating = sql.NullFloat64{Float64: *book.Rating, Valid: true}
	}
	if err := r.db.QueryRowContext(
		ctx,
		query,
		book.UserID,
		book.Author,
		book.Title,
		book.Description,
		book.TitleFont,
		book.ContentFont,
		book.Privacy,
		book.CanRate,
		book.CanReview,
		rating,
		pq.Array(book.AllowedUsers),
		book.CoverPicture,
		book.Archived,
		book.CreatedAt,
		book.UpdatedAt,
	).Scan(&book.ID); err != nil {
		return types.Book{}, err
	}

	return book, nil
}

func (r *BookRepository) Update(ctx context.Context, book types.Book) (types.Book, error) {
	book.UpdatedAt = time.Now()

	const query = `
		UPDATE books
		SET author = $1,
			title = $2,
			description = $3,
			title_font = $4,
			content_font = $5,
			privacy = $6,
			can_rate = $7,
			can_review = $8,
			allowed_users = $9,
			archived = $10,
			updated_at = $11
		WHERE id = $12`
	result, err := r.db.ExecContext(
		ctx,
		query,
		book.Author,
		book.Title,
		book.Description,
		book.TitleFont,
		book.ContentFont,
		book.Privacy,
		book.CanRate,
		book.CanReview,
		pq.Array(book.AllowedUsers),
		book.Archived,
		book.UpdatedAt,
		book.ID,
	)
	if err != nil {
		return types.Book{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Book{}, err
	}
	if affected == 0 {
		return types.Book{}, ErrNotFound
	}

	return book, nil
}

func (r *BookRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM books WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddTags unions the given tag identifiers into the book's tag set.
// Adding an already-present tag is a no-op; the insert is atomic at the
// statement level, so concurrent tag mutations never lose updates.
func (r *BookRepository) AddTags(ctx context.Context, bookID int, tagIDs []int64) error {
	if err := r.exists(ctx, bookID); err != nil {
		return err
	}

	const query = `
		INSERT INTO book_tags (book_id, tag_id)
		SELECT $1, t.id FROM tags t WHERE t.id = ANY($2)
		ON CONFLICT (book_id, tag_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, bookID, pq.Array(tagIDs))
	return err
}

// RemoveTags subtracts the given tag identifiers from the book's tag set.
// Removing an absent tag is a no-op.
func (r *BookRepository) RemoveTags(ctx context.Context, bookID int, tagIDs []int64) error {
	if err := r.exists(ctx, bookID); err != nil {
		return err
	}

	const query = `
		DELETE FROM book_tags
		WHERE book_id = $1 AND tag_id = ANY($2)`
	_, err := r.db.ExecContext(ctx, query, bookID, pq.Array(tagIDs))
	return err
}

// SetCoverPicture records the object-storage key of the book's cover image.
// An empty key clears it.
func (r *BookRepository) SetCoverPicture(ctx context.Context, id int, key string) error {
	const query = `
		UPDATE books
		SET cover_picture = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, key, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BookRepository) exists(ctx context.Context, id int) error {
	const query = `SELECT 1 FROM books WHERE id = $1`
	var one int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

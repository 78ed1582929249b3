package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkwell-app/apiserver/types"
)

// ChapterRepository handles persistence for chapters.
type ChapterRepository struct {
	db *sql.DB
}

func NewChapterRepository(db *sql.DB) *ChapterRepository {
	return &ChapterRepository{db: db}
}

const chapterColumns = `id, book_id, user_id, chapter_number, title, content, created_at, updated_at`

func (r *ChapterRepository) Get(ctx context.Context, id int) (types.Chapter, error) {
	const query = `
		SELECT ` + chapterColumns + `
		FROM chapters
		WHERE id = $1`
	var chapter types.Chapter
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&chapter.ID,
		&chapter.BookID,
		&chapter.UserID,
		&chapter.ChapterNumber,
		&chapter.Title,
		&chapter.Content,
		&chapter.CreatedAt,
		&chapter.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Chapter{}, ErrNotFound
		}
		return types.Chapter{}, err
	}
	return chapter, nil
}

func (r *ChapterRepository) ListByBook(ctx context.Context, bookID int) ([]types.Chapter, error) {
	const query = `
		SELECT ` + chapterColumns + `
		FROM chapters
		WHERE book_id = $1
		ORDER BY chapter_number`
	rows, err := r.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chapters := make([]types.Chapter, 0)
	for rows.Next() {
		var chapter types.Chapter
		if err := rows.Scan(
			&chapter.ID,
			&chapter.BookID,
			&chapter.UserID,
			&chapter.ChapterNumber,
			&chapter.Title,
			&chapter.Content,
			&chapter.CreatedAt,
			&chapter.UpdatedAt,
		); err != nil {
			return nil, err
		}
		chapters = append(chapters, chapter)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chapters, nil
}

// Create inserts a chapter. A duplicate (book_id, chapter_number) pair is
// rejected by the unique index and reported as ErrConflict; the original
// chapter is left untouched.
func (r *ChapterRepository) Create(ctx context.Context, chapter types.Chapter) (types.Chapter, error) {
	now := time.Now()
	chapter.CreatedAt = now
	chapter.UpdatedAt = now

	const query = `
		INSERT INTO chapters (book_id, user_id, chapter_number, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		chapter.BookID,
		chapter.UserID,
		chapter.ChapterNumber,
		chapter.Title,
		chapter.Content,
		chapter.CreatedAt,
		chapter.UpdatedAt,
	).Scan(&chapter.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Chapter{}, ErrConflict
		}
		return types.Chapter{}, err
	}
	return chapter, nil
}

func (r *ChapterRepository) Update(ctx context.Context, chapter types.Chapter) (types.Chapter, error) {
	chapter.UpdatedAt = time.Now()

	const query = `
		UPDATE chapters
		SET chapter_number = $1,
			title = $2,
			content = $3,
			updated_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		chapter.ChapterNumber,
		chapter.Title,
		chapter.Content,
		chapter.UpdatedAt,
		chapter.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Chapter{}, ErrConflict
		}
		return types.Chapter{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Chapter{}, err
	}
	if affected == 0 {
		return types.Chapter{}, ErrNotFound
	}
	return chapter, nil
}

func (r *ChapterRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM chapters WHERE id = $1`
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

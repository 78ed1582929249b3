package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkwell-app/apiserver/types"
)

// TagRepository handles persistence for tags.
type TagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) Get(ctx context.Context, id int) (types.Tag, error) {
	const query = `
		SELECT id, tag_name, created_at, updated_at
		FROM tags
		WHERE id = $1`
	var tag types.Tag
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tag.ID,
		&tag.TagName,
		&tag.CreatedAt,
		&tag.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Tag{}, ErrNotFound
		}
		return types.Tag{}, err
	}
	return tag, nil
}

func (r *TagRepository) List(ctx context.Context) ([]types.Tag, error) {
	const query = `
		SELECT id, tag_name, created_at, updated_at
		FROM tags
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]types.Tag, 0)
	for rows.Next() {
		var tag types.Tag
		if err := rows.Scan(&tag.ID, &tag.TagName, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// Create inserts a tag. Tag names are unique (case-sensitively); a
// duplicate is reported as ErrConflict.
func (r *TagRepository) Create(ctx context.Context, tag types.Tag) (types.Tag, error) {
	now := time.Now()
	tag.CreatedAt = now
	tag.UpdatedAt = now

	const query = `
		INSERT INTO tags (tag_name, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, tag.TagName, tag.CreatedAt, tag.UpdatedAt).Scan(&tag.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Tag{}, ErrConflict
		}
		return types.Tag{}, err
	}
	return tag, nil
}

func (r *TagRepository) Update(ctx context.Context, tag types.Tag) (types.Tag, error) {
	tag.UpdatedAt = time.Now()

	const query = `
		UPDATE tags
		SET tag_name = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, tag.TagName, tag.UpdatedAt, tag.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Tag{}, ErrConflict
		}
		return types.Tag{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Tag{}, err
	}
	if affected == 0 {
		return types.Tag{}, ErrNotFound
	}
	return tag, nil
}

func (r *TagRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM tags WHERE id = $1`
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

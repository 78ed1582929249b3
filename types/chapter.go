package types

import "time"

// Chapter represents a single chapter of a book. The pair
// (BookID, ChapterNumber) is unique: creating a duplicate number for the
// same book is a conflict, never an overwrite.
type Chapter struct {
	// ID is the unique identifier of the chapter.
	ID int `json:"id" db:"id"`

	// BookID identifies the book this chapter belongs to.
	BookID int `json:"book_id" db:"book_id"`

	// UserID identifies the user who created the chapter.
	UserID int `json:"user_id" db:"user_id"`

	// ChapterNumber is the chapter's position within the book.
	ChapterNumber int `json:"chapter_number" db:"chapter_number"`

	// Title is the chapter heading.
	Title string `json:"title" db:"title"`

	// Content is the chapter text. Line breaks are normalized to the
	// literal two-character sequence \n before storage.
	Content string `json:"content" db:"content"`

	// CreatedAt is the timestamp when the chapter was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the chapter.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

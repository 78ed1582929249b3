package types

import "time"

// Review rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a reader's rating and optional comment on a book.
// At most one review exists per (UserID, BookID) pair.
type Review struct {
	// ID is the unique identifier of the review.
	ID int `json:"id" db:"id"`

	// UserID identifies the reviewing user.
	UserID int `json:"user_id" db:"user_id"`

	// BookID identifies the reviewed book.
	BookID int `json:"book_id" db:"book_id"`

	// Rating is the reader's score, an integer in [1,5].
	Rating int `json:"rating" db:"rating"`

	// Comment is an optional free-form remark. Line breaks are normalized
	// to the literal two-character sequence \n before storage.
	Comment string `json:"comment" db:"comment"`

	// Username is the reviewer's display name, joined in on reads.
	Username string `json:"username,omitempty" db:"-"`

	// CreatedAt is the timestamp when the review was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the review.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

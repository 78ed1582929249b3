package types

import "time"

// Privacy modes for a book.
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
	PrivacyLimited = "limited"
)

// Book represents a work authored on the platform. A book is owned by the
// user who created it and is composed of chapters.
type Book struct {
	// ID is the unique identifier of the book.
	ID int `json:"id" db:"id"`

	// UserID identifies the owning user. Fixed at creation time.
	UserID int `json:"user_id" db:"user_id"`

	// Author is the display name shown as the book's author. It is
	// free-form and need not match the owner's username.
	Author string `json:"author" db:"author"`

	// Title is the book's title.
	Title string `json:"title" db:"title"`

	// Description is an optional blurb shown on listings.
	Description string `json:"description" db:"description"`

	// TitleFont and ContentFont are the reader display preferences
	// chosen by the author.
	TitleFont   string `json:"title_font" db:"title_font"`
	ContentFont string `json:"content_font" db:"content_font"`

	// Privacy controls who may see the book: "public" (everyone),
	// "private" (owner only) or "limited" (owner plus AllowedUsers).
	Privacy string `json:"privacy" db:"privacy"`

	// CanRate and CanReview are author preferences for whether readers
	// may rate or review the book.
	CanRate   bool `json:"can_rate" db:"can_rate"`
	CanReview bool `json:"can_review" db:"can_review"`

	// Rating is the arithmetic mean of all review ratings for the book,
	// nil when the book has no reviews. Recomputed on review creation.
	Rating *float64 `json:"rating" db:"rating"`

	// Tags holds the identifiers of the tags attached to the book.
	Tags []int64 `json:"tags" db:"tags"`

	// AllowedUsers lists the user identifiers granted read access when
	// Privacy is "limited".
	AllowedUsers []int64 `json:"allowed_users" db:"allowed_users"`

	// CoverPicture is the object-storage key of the uploaded cover image,
	// empty when none has been uploaded.
	CoverPicture string `json:"cover_picture" db:"cover_picture"`

	// Archived marks the book as shelved. It is a display hint only and
	// never filters listings.
	Archived bool `json:"archived" db:"archived"`

	// CreatedAt is the timestamp at which the book was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the book.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Chapters is populated on list and detail reads; it is not stored
	// on the books table itself.
	Chapters []Chapter `json:"chapters,omitempty" db:"-"`

	// Reviews is populated on detail reads.
	Reviews []Review `json:"reviews,omitempty" db:"-"`
}

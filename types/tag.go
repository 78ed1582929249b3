package types

import "time"

// Tag is a label attachable to books. Tag names are unique.
type Tag struct {
	ID        int       `json:"id" db:"id"`
	TagName   string    `json:"tag_name" db:"tag_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

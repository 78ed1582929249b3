package services

import "errors"

// ErrForbidden is returned when an authenticated actor is not authorized
// for the attempted mutation (wrong owner or missing role).
var ErrForbidden = errors.New("forbidden")

// ErrInvalidProperty is returned by patch operations for property names
// outside the permitted set, values of the wrong type, or target fields
// that are currently empty.
var ErrInvalidProperty = errors.New("invalid property")

// ErrInvalidRating is returned when a review rating falls outside [1,5].
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ErrInvalidPrivacy is returned when a book privacy mode is not one of
// public, private or limited.
var ErrInvalidPrivacy = errors.New("invalid privacy mode")

package services

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/inkwell-app/apiserver/internal/storage"
	"github.com/inkwell-app/apiserver/internal/store"
	"github.com/inkwell-app/apiserver/types"
)

// ErrUnsupportedPicture is returned for uploads outside the image
// content-type allow-list.
var ErrUnsupportedPicture = errors.New("unsupported picture content type")

// ErrPictureTooLarge is returned for uploads exceeding the size cap.
var ErrPictureTooLarge = errors.New("picture exceeds maximum size")

// MaxPictureSize caps uploaded profile and cover pictures at 5 MiB.
const MaxPictureSize = 5 << 20

var pictureExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UserPictureRepository persists a user's profile picture key.
type UserPictureRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	SetProfilePicture(ctx context.Context, id int, key string) error
}

// BookPictureRepository persists a book's cover picture key.
type BookPictureRepository interface {
	Get(ctx context.Context, id int) (types.Book, error)
	SetCoverPicture(ctx context.Context, id int, key string) error
}

// PictureService stores profile and cover pictures in object storage and
// records the object key on the owning row. Keys are opaque UUIDs; the
// original filename is never kept.
type PictureService struct {
	storage *storage.Storage
	users   UserPictureRepository
	books   BookPictureRepository
}

func NewPictureService(store *storage.Storage, users UserPictureRepository, books BookPictureRepository) *PictureService {
	return &PictureService{storage: store, users: users, books: books}
}

func pictureKey(prefix, contentType string) (string, error) {
	ext, ok := pictureExtensions[contentType]
	if !ok {
		return "", ErrUnsupportedPicture
	}
	return prefix + "/" + uuid.NewString() + ext, nil
}

func contentTypeForKey(key string) string {
	ext := path.Ext(key)
	for contentType, e := range pictureExtensions {
		if e == ext {
			return contentType
		}
	}
	return "application/octet-stream"
}

// UploadProfilePicture stores a new profile picture for the actor and
// replaces any previous one.
func (s *PictureService) UploadProfilePicture(ctx context.Context, actor types.User, r io.Reader, size int64, contentType string) (string, error) {
	if size > MaxPictureSize {
		return "", ErrPictureTooLarge
	}
	key, err := pictureKey("profile", contentType)
	if err != nil {
		return "", err
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return "", err
	}
	if err := s.storage.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	if err := s.users.SetProfilePicture(ctx, actor.ID, key); err != nil {
		return "", err
	}
	if user.ProfilePicture != "" {
		if err := s.storage.Delete(ctx, user.ProfilePicture); err != nil {
			return key, err
		}
	}
	return key, nil
}

// GetProfilePicture opens the user's profile picture for reading. The
// caller must close the reader.
func (s *PictureService) GetProfilePicture(ctx context.Context, userID int) (io.ReadCloser, string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if user.ProfilePicture == "" {
		return nil, "", store.ErrNotFound
	}
	reader, err := s.storage.Get(ctx, user.ProfilePicture)
	if err != nil {
		return nil, "", err
	}
	return reader, contentTypeForKey(user.ProfilePicture), nil
}

// RemoveProfilePicture deletes the actor's profile picture.
func (s *PictureService) RemoveProfilePicture(ctx context.Context, actor types.User) error {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if user.ProfilePicture == "" {
		return store.ErrNotFound
	}
	if err := s.users.SetProfilePicture(ctx, actor.ID, ""); err != nil {
		return err
	}
	return s.storage.Delete(ctx, user.ProfilePicture)
}

// UploadCoverPicture stores a new cover picture for a book the actor owns
// and replaces any previous one.
func (s *PictureService) UploadCoverPicture(ctx context.Context, actor types.User, bookID int, r io.Reader, size int64, contentType string) (string, error) {
	if size > MaxPictureSize {
		return "", ErrPictureTooLarge
	}
	key, err := pictureKey("cover", contentType)
	if err != nil {
		return "", err
	}

	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return "", err
	}
	if !CanModify(actor, book.UserID) {
		return "", ErrForbidden
	}
	if err := s.storage.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	if err := s.books.SetCoverPicture(ctx, bookID, key); err != nil {
		return "", err
	}
	if book.CoverPicture != "" {
		if err := s.storage.Delete(ctx, book.CoverPicture); err != nil {
			return key, err
		}
	}
	return key, nil
}

// GetCoverPicture opens the book's cover picture for reading. The caller
// must close the reader.
func (s *PictureService) GetCoverPicture(ctx context.Context, bookID int) (io.ReadCloser, string, error) {
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return nil, "", err
	}
	if book.CoverPicture == "" {
		return nil, "", store.ErrNotFound
	}
	reader, err := s.storage.Get(ctx, book.CoverPicture)
	if err != nil {
		return nil, "", err
	}
	return reader, contentTypeForKey(book.CoverPicture), nil
}

// RemoveCoverPicture deletes the cover picture of a book the actor owns.
func (s *PictureService) RemoveCoverPicture(ctx context.Context, actor types.User, bookID int) error {
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return err
	}
	if !CanModify(actor, book.UserID) {
		return ErrForbidden
	}
	if book.CoverPicture == "" {
		return store.ErrNotFound
	}
	if err := s.books.SetCoverPicture(ctx, bookID, ""); err != nil {
		return err
	}
	return s.storage.Delete(ctx, book.CoverPicture)
}

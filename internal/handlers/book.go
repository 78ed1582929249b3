package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-app/apiserver/internal/services"
	"github.com/inkwell-app/apiserver/types"
)

// BookHandler provides book endpoints.
type BookHandler struct {
	books    *services.BookService
	pictures *services.PictureService
	users    *services.UserService
}

func NewBookHandler(books *services.BookService, pictures *services.PictureService, users *services.UserService) *BookHandler {
	return &BookHandler{books: books, pictures: pictures, users: users}
}

// BookRouter registers book routes on the given router.
func BookRouter(r chi.Router, books *services.BookService, pictures *services.PictureService, users *services.UserService, jwtSecret string) {
	handler := NewBookHandler(books, pictures, users)

	optionalAuth := OptionalAuth(jwtSecret)
	r.With(optionalAuth).Get("/get/all", handler.ListAll)
	r.With(optionalAuth).Get("/get/books/{userID}", handler.ListByAuthor)
	r.Get("/get/{bookID}", handler.Get)
	r.Get("/get-tags", handler.ListByTags)
	r.Get("/get/cover-picture/{bookID}", handler.GetCoverPicture)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(jwtSecret))
		r.Post("/create", handler.Create)
		r.Put("/update/{bookID}", handler.Update)
		r.Patch("/patch/{bookID}", handler.Patch)
		r.Delete("/delete/{bookID}", handler.Delete)
		r.Patch("/upload/cover-picture/{bookID}", handler.UploadCoverPicture)
		r.Patch("/remove/cover-picture/{bookID}", handler.RemoveCoverPicture)
	})
}

// viewer resolves the optional authenticated viewer; nil is anonymous.
func (h *BookHandler) viewer(r *http.Request) *types.User {
	user, err := loadActor(r.Context(), h.users)
	if err != nil {
		return nil
	}
	return &user
}

type BookUpsertRequest struct {
	Title        string  `json:"title"`
	Author       string  `json:"author"`
	Description  string  `json:"description"`
	TitleFont    string  `json:"titleFont"`
	ContentFont  string  `json:"contentFont"`
	Privacy      string  `json:"privacy"`
	CanRate      *bool   `json:"canRate"`
	CanReview    *bool   `json:"canReview"`
	AllowedUsers []int64 `json:"allowedUsers"`
	Archived     bool    `json:"archived"`
}

func (req BookUpsertRequest) toBook() types.Book {
	book := types.Book{
		Title:        strings.TrimSpace(req.Title),
		Author:       strings.TrimSpace(req.Author),
		Description:  req.Description,
		TitleFont:    req.TitleFont,
		ContentFont:  req.ContentFont,
		Privacy:      req.Privacy,
		CanRate:      true,
		CanReview:    true,
		AllowedUsers: req.AllowedUsers,
		Archived:     req.Archived,
	}
	if req.CanRate != nil {
		book.CanRate = *req.CanRate
	}
	if req.CanReview != nil {
		book.CanReview = *req.CanReview
	}
	return book
}

// Create inserts a book owned by the caller.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}

	var req BookUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	book := req.toBook()
	if book.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	created, err := h.books.Create(r.Context(), actor, book)
	if err != nil {
		writeDomainError(w, err, "book")
		return
	}
	writeSuccess(w, http.StatusCreated, "book created", created)
}

// ListAll returns every book visible to the viewer.
func (h *BookHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.ListAll(r.Context(), h.viewer(r))
	if err != nil {
		writeDomainError(w, err, "books")
		return
	}
	if len(books) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeSuccess(w, http.StatusOK, "books retrieved", books)
}

// ListByAuthor returns an author's books visible to the viewer.
func (h *BookHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	books, err := h.books.ListByAuthor(r.Context(), authorID, h.viewer(r))
	if err != nil {
		writeDomainError(w, err, "books")
		return
	}
	if len(books) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeSuccess(w, http.StatusOK, "books retrieved", books)
}

// Get returns a single book with its reviews.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	bookID, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	book, err := h.books.Get(r.Context(), bookID)
	if err != nil {
		writeDomainError(w, err, "book")
		return
	}
	writeSuccess(w, http.StatusOK, "book retrieved", book)
}

// ListByTags returns books carrying at least one of the requested tags.
func (h *BookHandler) ListByTags(w http.ResponseWriter, r *http.Request) {
	tagIDs, err := parseTagsQuery(r.URL.Query().Get("tags"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	books, err := h.books.ListByTags(r.Context(), tagIDs)
	if err != nil {
		writeDomainError(w, err, "books")
		return
	}
	if len(books) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeSuccess(w, http.StatusOK, "books retrieved", books)
}

// Update replaces a book's mutable fields.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}
	bookID, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req BookUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.books.Update(r.Context(), actor, bookID, req.toBook())
	if err != nil {
		writeDomainError(w, err, "book")
		return
	}
	writeSuccess(w, http.StatusOK, "book updated", updated)
}

// Patch assigns a single book property.
func (h *BookHandler) Patch(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}
	bookID, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	patched, err := h.books.Patch(r.Context(), actor, bookID, req.Property, req.Value)
	if err != nil {
		writeDomainError(w, err, "book")
		return
	}
	writeSuccess(w, http.StatusOK, "book patched", patched)
}

// Delete removes a book.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}
	bookID, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	book, err := h.books.Delete(r.Context(), actor, bookID)
	if err != nil {
		writeDomainError(w, err, "book")
		return
	}
	writeSuccess(w, http.StatusOK, "book deleted", book)
}

// UploadCoverPicture stores a new cover picture for a book.
func (h *BookHandler) UploadCoverPicture(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}
	bookID, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, size, contentType, err := parsePictureForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	key, err := h.pictures.UploadCoverPicture(r.Context(), actor, bookID, file, size, contentType)
	if err != nil {
		writeDomainError(w, err, "cover picture")
		return
	}
	writeSuccess(w, http.StatusOK, "cover picture uploaded", PictureContent{Picture: key})
}

// RemoveCoverPicture deletes a book's cover picture.
func (h *BookHandler) RemoveCoverPicture(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}
	bookID, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.pictures.RemoveCoverPicture(r.Context(), actor, bookID); err != nil {
		writeDomainError(w, err, "cover picture")
		return
	}
	writeSuccess(w, http.StatusOK, "cover picture removed", nil)
}

// GetCoverPicture streams a book's cover picture.
func (h *BookHandler) GetCoverPicture(w http.ResponseWriter, r *http.Request) {
	bookID, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, contentType, err := h.pictures.GetCoverPicture(r.Context(), bookID)
	if err != nil {
		writeDomainError(w, err, "cover picture")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

var errInvalidTags = errors.New("invalid tags parameter")

// parseTagsQuery parses a comma-separated list of tag identifiers.
func parseTagsQuery(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errInvalidTags
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id < 1 {
			return nil, errInvalidTags
		}
		ids = append(ids, id)
	}
	return ids, nil
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-app/apiserver/internal/services"
	"github.com/inkwell-app/apiserver/types"
)

// TagHandler provides tag endpoints.
type TagHandler struct {
	tags  *services.TagService
	users *services.UserService
}

func NewTagHandler(tags *services.TagService, users *services.UserService) *TagHandler {
	return &TagHandler{tags: tags, users: users}
}

// TagRouter registers tag routes on the given router.
func TagRouter(r chi.Router, tags *services.TagService, users *services.UserService, jwtSecret string) {
	handler := NewTagHandler(tags, users)

	r.Get("/get/all", handler.List)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(jwtSecret))
		r.Post("/create", handler.Create)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(users))
			r.Put("/update/{tagID}", handler.Update)
			r.Delete("/delete/{tagID}", handler.Delete)
			r.Patch("/add/{bookID}", handler.AddToBook)
			r.Patch("/remove/{bookID}", handler.RemoveFromBook)
		})
	})
}

type TagRequest struct {
	TagName string `json:"tagName"`
}

// BookTagsRequest names the tags to attach to or detach from a book.
type BookTagsRequest struct {
	Tags []int64 `json:"tags"`
}

// Create inserts a tag into the shared vocabulary.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.TagName = strings.TrimSpace(req.TagName)
	if req.TagName == "" {
		writeError(w, http.StatusBadRequest, "tagName is required")
		return
	}

	created, err := h.tags.Create(r.Context(), types.Tag{TagName: req.TagName})
	if err != nil {
		writeDomainError(w, err, "tag")
		return
	}
	writeSuccess(w, http.StatusCreated, "tag created", created)
}

// List returns every tag.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "tags")
		return
	}
	writeSuccess(w, http.StatusOK, "tags retrieved", tags)
}

// Update renames a tag. Admin only.
func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}
	tagID, err := parseIDParam(r, "tagID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.TagName = strings.TrimSpace(req.TagName)
	if req.TagName == "" {
		writeError(w, http.StatusBadRequest, "tagName is required")
		return
	}

	updated, err := h.tags.Update(r.Context(), actor, tagID, req.TagName)
	if err != nil {
		writeDomainError(w, err, "tag")
		return
	}
	writeSuccess(w, http.StatusOK, "tag updated", updated)
}

// Delete removes a tag. Admin only.
func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}
	tagID, err := parseIDParam(r, "tagID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tag, err := h.tags.Delete(r.Context(), actor, tagID)
	if err != nil {
		writeDomainError(w, err, "tag")
		return
	}
	writeSuccess(w, http.StatusOK, "tag deleted", tag)
}

// AddToBook attaches tags to a book. Admin only.
func (h *TagHandler) AddToBook(w http.ResponseWriter, r *http.Request) {
	h.patchBookTags(w, r, "tags added", h.tags.AddToBook)
}

// RemoveFromBook detaches tags from a book. Admin only.
func (h *TagHandler) RemoveFromBook(w http.ResponseWriter, r *http.Request) {
	h.patchBookTags(w, r, "tags removed", h.tags.RemoveFromBook)
}

func (h *TagHandler) patchBookTags(w http.ResponseWriter, r *http.Request, message string, apply func(context.Context, types.User, int, []int64) error) {
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

	var req BookTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if len(req.Tags) == 0 {
		writeError(w, http.StatusBadRequest, "tags are required")
		return
	}

	if err := apply(r.Context(), actor, bookID, req.Tags); err != nil {
		writeDomainError(w, err, "book")
		return
	}
	writeSuccess(w, http.StatusOK, message, nil)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-app/apiserver/internal/services"
	"github.com/inkwell-app/apiserver/types"
)

// ChapterHandler provides chapter endpoints.
type ChapterHandler struct {
	chapters *services.ChapterService
	users    *services.UserService
}

func NewChapterHandler(chapters *services.ChapterService, users *services.UserService) *ChapterHandler {
	return &ChapterHandler{chapters: chapters, users: users}
}

// ChapterRouter registers chapter routes on the given router.
func ChapterRouter(r chi.Router, chapters *services.ChapterService, users *services.UserService, jwtSecret string) {
	handler := NewChapterHandler(chapters, users)

	r.Get("/get/{bookID}", handler.ListByBook)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(jwtSecret))
		r.Post("/create", handler.Create)
		r.Put("/update/{chapterID}", handler.Update)
		r.Patch("/patch/{chapterID}", handler.Patch)
		r.Delete("/delete/{chapterID}", handler.Delete)
	})
}

type ChapterUpsertRequest struct {
	BookID        int    `json:"bookId"`
	ChapterNumber int    `json:"chapterNumber"`
	Title         string `json:"title"`
	Content       string `json:"content"`
}

// Create inserts a chapter into one of the caller's books.
func (h *ChapterHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}

	var req ChapterUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.BookID < 1 || req.ChapterNumber < 1 || req.Title == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	created, err := h.chapters.Create(r.Context(), actor, types.Chapter{
		BookID:        req.BookID,
		ChapterNumber: req.ChapterNumber,
		Title:         req.Title,
		Content:       req.Content,
	})
	if err != nil {
		writeDomainError(w, err, "chapter")
		return
	}
	writeSuccess(w, http.StatusCreated, "chapter created", created)
}

// ListByBook returns a book's chapters.
func (h *ChapterHandler) ListByBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chapters, err := h.chapters.ListByBook(r.Context(), bookID)
	if err != nil {
		writeDomainError(w, err, "chapters")
		return
	}
	writeSuccess(w, http.StatusOK, "chapters retrieved", chapters)
}

// Update replaces a chapter's mutable fields.
func (h *ChapterHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}
	chapterID, err := parseIDParam(r, "chapterID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ChapterUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.chapters.Update(r.Context(), actor, chapterID, types.Chapter{
		ChapterNumber: req.ChapterNumber,
		Title:         strings.TrimSpace(req.Title),
		Content:       req.Content,
	})
	if err != nil {
		writeDomainError(w, err, "chapter")
		return
	}
	writeSuccess(w, http.StatusOK, "chapter updated", updated)
}

// Patch assigns a single chapter property.
func (h *ChapterHandler) Patch(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}
	chapterID, err := parseIDParam(r, "chapterID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	patched, err := h.chapters.Patch(r.Context(), actor, chapterID, req.Property, req.Value)
	if err != nil {
		writeDomainError(w, err, "chapter")
		return
	}
	writeSuccess(w, http.StatusOK, "chapter patched", patched)
}

// Delete removes a chapter.
func (h *ChapterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}
	chapterID, err := parseIDParam(r, "chapterID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chapter, err := h.chapters.Delete(r.Context(), actor, chapterID)
	if err != nil {
		writeDomainError(w, err, "chapter")
		return
	}
	writeSuccess(w, http.StatusOK, "chapter deleted", chapter)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-app/apiserver/internal/services"
	"github.com/inkwell-app/apiserver/types"
)

// ReviewHandler provides review endpoints.
type ReviewHandler struct {
	reviews *services.ReviewService
	users   *services.UserService
}

func NewReviewHandler(reviews *services.ReviewService, users *services.UserService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, users: users}
}

// ReviewRouter registers review routes on the given router.
func ReviewRouter(r chi.Router, reviews *services.ReviewService, users *services.UserService, jwtSecret string) {
	handler := NewReviewHandler(reviews, users)

	r.Get("/get/{bookID}", handler.ListByBook)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(jwtSecret))
		r.Post("/create/{bookID}", handler.Create)
		r.Put("/update/{reviewID}", handler.Update)
		r.Patch("/patch/{reviewID}", handler.Patch)
		r.With(RequireAdmin(users)).Delete("/delete/{reviewID}", handler.Delete)
	})
}

type ReviewUpsertRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Create inserts the caller's review of a book.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req ReviewUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.reviews.Create(r.Context(), actor, types.Review{
		BookID:  bookID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		writeDomainError(w, err, "review")
		return
	}
	writeSuccess(w, http.StatusCreated, "review created", created)
}

// ListByBook returns a book's reviews.
func (h *ReviewHandler) ListByBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := parseIDParam(r, "bookID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reviews, err := h.reviews.ListByBook(r.Context(), bookID)
	if err != nil {
		writeDomainError(w, err, "reviews")
		return
	}
	if len(reviews) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeSuccess(w, http.StatusOK, "reviews retrieved", reviews)
}

// Update replaces a review's rating and comment.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	reviewID, err := parseIDParam(r, "reviewID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ReviewUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.reviews.Update(r.Context(), reviewID, req.Rating, req.Comment)
	if err != nil {
		writeDomainError(w, err, "review")
		return
	}
	writeSuccess(w, http.StatusOK, "review updated", updated)
}

// Patch assigns a single review property.
func (h *ReviewHandler) Patch(w http.ResponseWriter, r *http.Request) {
	reviewID, err := parseIDParam(r, "reviewID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	patched, err := h.reviews.Patch(r.Context(), reviewID, req.Property, req.Value)
	if err != nil {
		writeDomainError(w, err, "review")
		return
	}
	writeSuccess(w, http.StatusOK, "review patched", patched)
}

// Delete removes a review. Admin only.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}
	reviewID, err := parseIDParam(r, "reviewID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviews.Delete(r.Context(), actor, reviewID)
	if err != nil {
		writeDomainError(w, err, "review")
		return
	}
	writeSuccess(w, http.StatusOK, "review deleted", review)
}

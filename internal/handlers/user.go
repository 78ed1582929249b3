package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-app/apiserver/internal/services"
	"github.com/inkwell-app/apiserver/internal/store"
	"github.com/inkwell-app/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler provides account and profile-picture endpoints.
type UserHandler struct {
	users    *services.UserService
	pictures *services.PictureService
	secret   []byte
	tokenTTL time.Duration
}

func NewUserHandler(users *services.UserService, pictures *services.PictureService, jwtSecret string) *UserHandler {
	return &UserHandler{
		users:    users,
		pictures: pictures,
		secret:   []byte(jwtSecret),
		tokenTTL: defaultTokenTTL,
	}
}

// UserRouter registers account routes on the given router.
func UserRouter(r chi.Router, users *services.UserService, pictures *services.PictureService, jwtSecret string) {
	handler := NewUserHandler(users, pictures, jwtSecret)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(jwtSecret))
		r.Put("/update/username", handler.UpdateUsername)
		r.Put("/update/email", handler.UpdateEmail)
		r.Put("/update/password", handler.UpdatePassword)
		r.Patch("/archive", handler.Archive)
		r.Delete("/delete", handler.Delete)
		r.Patch("/upload/profile-picture", handler.UploadProfilePicture)
		r.Get("/get/profile-picture", handler.GetProfilePicture)
		r.Patch("/remove/profile-picture", handler.RemoveProfilePicture)
	})
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthContent is the content payload for register and login responses.
type AuthContent struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// PictureContent carries the stored object key of an uploaded picture.
type PictureContent struct {
	Picture string `json:"picture"`
}

// Register creates a new account and returns a JWT.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user, err := h.users.Register(r.Context(), types.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}

	token, err := issueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeSuccess(w, http.StatusCreated, "user registered", AuthContent{Token: token, User: user})
}

// Login verifies credentials and returns a JWT.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusForbidden, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusForbidden, "invalid credentials")
		return
	}

	token, err := issueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeSuccess(w, http.StatusOK, "login successful", AuthContent{Token: token, User: user})
}

// UpdateUsername changes the caller's display name.
func (h *UserHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	h.updateField(w, r, "username", func(actor types.User, value string) (types.User, error) {
		return h.users.UpdateUsername(r.Context(), actor, actor.ID, value)
	})
}

// UpdateEmail changes the caller's email.
func (h *UserHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	h.updateField(w, r, "email", func(actor types.User, value string) (types.User, error) {
		return h.users.UpdateEmail(r.Context(), actor, actor.ID, value)
	})
}

// UpdatePassword replaces the caller's password.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	h.updateField(w, r, "password", func(actor types.User, value string) (types.User, error) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
		if err != nil {
			return types.User{}, err
		}
		return h.users.UpdatePassword(r.Context(), actor, actor.ID, string(hashed))
	})
}

func (h *UserHandler) updateField(w http.ResponseWriter, r *http.Request, field string, apply func(types.User, string) (types.User, error)) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	value := body[field]
	if field != "password" {
		value = strings.TrimSpace(value)
	}
	if value == "" {
		writeError(w, http.StatusBadRequest, field+" is required")
		return
	}

	user, err := apply(actor, value)
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	writeSuccess(w, http.StatusOK, field+" updated", user)
}

// Archive soft-disables the caller's account.
func (h *UserHandler) Archive(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}

	user, err := h.users.Archive(r.Context(), actor, actor.ID)
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	writeSuccess(w, http.StatusOK, "user archived", user)
}

// Delete removes the caller's account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}

	user, err := h.users.Delete(r.Context(), actor, actor.ID)
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	writeSuccess(w, http.StatusOK, "user deleted", user)
}

// UploadProfilePicture stores a new profile picture for the caller.
func (h *UserHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}

	file, size, contentType, err := parsePictureForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	key, err := h.pictures.UploadProfilePicture(r.Context(), actor, file, size, contentType)
	if err != nil {
		writeDomainError(w, err, "profile picture")
		return
	}
	writeSuccess(w, http.StatusOK, "profile picture uploaded", PictureContent{Picture: key})
}

// GetProfilePicture streams the caller's profile picture.
func (h *UserHandler) GetProfilePicture(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}

	reader, contentType, err := h.pictures.GetProfilePicture(r.Context(), actor.ID)
	if err != nil {
		writeDomainError(w, err, "profile picture")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

// RemoveProfilePicture deletes the caller's profile picture.
func (h *UserHandler) RemoveProfilePicture(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r.Context(), h.users)
	if err != nil {
		writeError(w, http.StatusForbidden, "authentication required")
		return
	}

	if err := h.pictures.RemoveProfilePicture(r.Context(), actor); err != nil {
		writeDomainError(w, err, "profile picture")
		return
	}
	writeSuccess(w, http.StatusOK, "profile picture removed", nil)
}

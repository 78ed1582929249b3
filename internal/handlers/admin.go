package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-app/apiserver/internal/services"
	"github.com/inkwell-app/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandler provides moderation endpoints.
type AdminHandler struct {
	admin    *services.AdminService
	users    *services.UserService
	secret   []byte
	tokenTTL time.Duration
}

func NewAdminHandler(admin *services.AdminService, users *services.UserService, jwtSecret string) *AdminHandler {
	return &AdminHandler{
		admin:    admin,
		users:    users,
		secret:   []byte(jwtSecret),
		tokenTTL: defaultTokenTTL,
	}
}

// AdminRouter registers moderation routes on the given router. Everything
// except registration sits behind the admin middleware.
func AdminRouter(r chi.Router, admin *services.AdminService, users *services.UserService, jwtSecret string) {
	handler := NewAdminHandler(admin, users, jwtSecret)

	r.Post("/register", handler.Register)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(jwtSecret), RequireAdmin(users))
		r.Get("/get/users", handler.ListUsers)
		r.Get("/get/{userID}", handler.GetUser)
		r.Put("/modify/role/{userID}", handler.ModifyRole)
		r.Delete("/delete/{userID}", handler.DeleteUser)
	})
}

type ModifyRoleRequest struct {
	Role string `json:"role"`
}

// Register creates a new admin account and returns a JWT.
func (h *AdminHandler) Register(w http.ResponseWriter, r *http.Request) {
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
		writeError(w, http.StatusInternalServerError, "failed to create admin")
		return
	}

	user, err := h.admin.RegisterAdmin(r.Context(), types.User{
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

	writeSuccess(w, http.StatusCreated, "admin registered", AuthContent{Token: token, User: user})
}

// ListUsers returns every registered account.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.admin.ListUsers(r.Context())
	if err != nil {
		writeDomainError(w, err, "users")
		return
	}
	if len(list) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeSuccess(w, http.StatusOK, "users retrieved", list)
}

// GetUser returns a single account.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.admin.GetUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	writeSuccess(w, http.StatusOK, "user retrieved", user)
}

// ModifyRole changes an account's role.
func (h *AdminHandler) ModifyRole(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ModifyRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.admin.ModifyRole(r.Context(), userID, strings.TrimSpace(req.Role))
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	writeSuccess(w, http.StatusOK, "role modified", user)
}

// DeleteUser removes an account.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.admin.DeleteUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, "user")
		return
	}
	writeSuccess(w, http.StatusOK, "user deleted", user)
}

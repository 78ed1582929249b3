package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-app/apiserver/internal/services"
	"github.com/inkwell-app/apiserver/internal/store"
	"github.com/inkwell-app/apiserver/types"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

func userIDFromContext(ctx context.Context) (int, error) {
	value := ctx.Value(contextSubjectKey)
	switch subject := value.(type) {
	case int:
		if subject < 1 {
			return 0, errors.New("invalid subject")
		}
		return subject, nil
	case int64:
		if subject < 1 {
			return 0, errors.New("invalid subject")
		}
		return int(subject), nil
	case float64:
		if subject < 1 {
			return 0, errors.New("invalid subject")
		}
		return int(subject), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(subject))
		if err != nil || parsed < 1 {
			return 0, errors.New("invalid subject")
		}
		return parsed, nil
	default:
		return 0, errors.New("missing subject")
	}
}

// SuccessResponse is the envelope for successful responses.
type SuccessResponse struct {
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ErrorInfo carries the failure detail inside an ErrorResponse.
type ErrorInfo struct {
	Message string `json:"message"`
}

// ErrorResponse is the envelope for failed responses.
type ErrorResponse struct {
	Title string    `json:"title"`
	Info  ErrorInfo `json:"info"`
}

// PatchRequest names a single property to assign.
type PatchRequest struct {
	Property string `json:"property"`
	Value    any    `json:"value"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeSuccess(w http.ResponseWriter, status int, message string, content any) {
	writeJSON(w, status, SuccessResponse{Message: message, Content: content})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Title: http.StatusText(status),
		Info:  ErrorInfo{Message: message},
	})
}

// writeDomainError maps service and store errors onto the response
// envelope. resource names the entity for not-found messages.
func writeDomainError(w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, resource+" already exists")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrInvalidProperty),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrInvalidPrivacy),
		errors.Is(err, services.ErrUnsupportedPicture),
		errors.Is(err, services.ErrPictureTooLarge):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// loadActor resolves the authenticated user behind the request.
func loadActor(ctx context.Context, users *services.UserService) (types.User, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return types.User{}, err
	}
	return users.GetByID(ctx, userID)
}

func parseIDParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

const maxMultipartMemory = 32 << 20

// parsePictureForm extracts the "picture" file from a multipart form.
// The caller must close the returned reader.
func parsePictureForm(r *http.Request) (io.ReadCloser, int64, string, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, 0, "", errors.New("invalid multipart form")
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["picture"]) != 1 {
		return nil, 0, "", errors.New("exactly one picture file is required")
	}

	header := r.MultipartForm.File["picture"][0]
	opened, err := header.Open()
	if err != nil {
		return nil, 0, "", errors.New("failed to read picture")
	}
	return opened, header.Size, header.Header.Get("Content-Type"), nil
}

package handlers

import "net/http"

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, "ok", nil)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PasswordRecoveryHandler is a route stub. The recovery flow is not wired
// yet; the endpoint exists so clients get a stable answer instead of a 404.
type PasswordRecoveryHandler struct{}

func NewPasswordRecoveryHandler() *PasswordRecoveryHandler {
	return &PasswordRecoveryHandler{}
}

func (h *PasswordRecoveryHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "request", "validate-code", "change-password":
		writeError(w, http.StatusNotImplemented, "password recovery is not available yet")
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

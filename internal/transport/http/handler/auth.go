package handler

import (
	"encoding/json"
	"net/http"

	"github.com/GioMjds/savoury-api/internal/application/registration"
	"github.com/GioMjds/savoury-api/internal/domain"
)

// AuthHandler handles the OTP-gated registration endpoints.
type AuthHandler struct {
	svc registration.Service
}

func NewAuthHandler(svc registration.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register starts a registration: uniqueness checks, OTP issued and mailed.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.StartRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Start(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent successfully"})
}

// ResendOTP re-arms an existing pending registration with a fresh code.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Resend(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP resent successfully"})
}

// VerifyOTP promotes a pending registration into a persisted user.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.CompleteRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.svc.Complete(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{Message: "user registered successfully", User: u})
}

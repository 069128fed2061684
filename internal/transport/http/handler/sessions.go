package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/GioMjds/savoury-api/internal/application/session"
	"github.com/GioMjds/savoury-api/internal/domain"
)

// SessionHandler handles login, logout, refresh and current-session
// endpoints, translating the session service's token pairs into http-only
// same-site cookies.
type SessionHandler struct {
	svc        session.Service
	accessTTL  time.Duration
	refreshTTL time.Duration
	secure     bool
}

func NewSessionHandler(svc session.Service, accessTTL, refreshTTL time.Duration, secure bool) *SessionHandler {
	return &SessionHandler{svc: svc, accessTTL: accessTTL, refreshTTL: refreshTTL, secure: secure}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pair, u, err := h.svc.Login(r.Context(), req)
	if err != nil {
		// Same status and message for unknown identifier and wrong password,
		// so login responses don't confirm which accounts exist.
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		httpError(w, err)
		return
	}
	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, AuthEnvelope{Message: "logged in successfully", User: u})
}

func (h *SessionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.svc.Current(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "no active session")
		return
	}
	u, _ := h.svc.CurrentUser(r.Context(), r)
	writeJSON(w, http.StatusOK, SessionEnvelope{Session: claims, User: u})
}

func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFrom(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "refresh token required")
		return
	}
	pair, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		httpError(w, err)
		return
	}
	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "session refreshed"})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(session.AccessTokenCookie); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized - no session found")
		return
	}
	for _, name := range h.svc.CookiesToClear() {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out successfully"})
}

func (h *SessionHandler) setTokenCookies(w http.ResponseWriter, pair *session.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(h.accessTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     session.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// refreshTokenFrom reads the refresh token from its cookie, falling back to a
// JSON body for non-browser clients.
func refreshTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(session.RefreshTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
		return body.RefreshToken
	}
	return ""
}

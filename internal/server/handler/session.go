package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/timedrop/tdadmin/internal/session"
)

// SessionService is the part of session.Service the login endpoints use.
type SessionService interface {
	Login(ctx context.Context, email, password string) bool
	Logout(ctx context.Context) string
	LastError() error
	ConsoleKey() string
	Info() session.Info
}

// SessionHandler serves login, logout and session introspection.
type SessionHandler struct {
	sess         SessionService
	secureCookie bool
	logger       *slog.Logger
}

// NewSessionHandler creates a SessionHandler. secureCookie sets the Secure
// attribute on the console cookie.
func NewSessionHandler(sess SessionService, secureCookie bool, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sess: sess, secureCookie: secureCookie, logger: logHandler(logger, "session")}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates against the backend and issues the console cookie.
// Both JSON and form bodies are accepted.
// POST /login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if !decodeJSON(w, r, &req) {
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
			return
		}
		req.Email, req.Password = r.PostFormValue("email"), r.PostFormValue("password")
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if !h.sess.Login(r.Context(), strings.TrimSpace(req.Email), req.Password) {
		msg := "login failed"
		if err := h.sess.LastError(); err != nil {
			msg = err.Error()
		}
		writeError(w, http.StatusUnauthorized, msg)
		return
	}

	http.SetCookie(w, h.cookie(h.sess.ConsoleKey(), 0))
	writeJSON(w, http.StatusOK, h.sess.Info())
}

// Logout drops the session and the console cookie and returns the route to
// navigate to.
// POST /logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	route := h.sess.Logout(r.Context())
	http.SetCookie(w, h.cookie("", -1))
	writeJSON(w, http.StatusOK, map[string]string{"redirect": route})
}

// Session reports the session state without the token.
// GET /api/session
func (h *SessionHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Info())
}

func (h *SessionHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}

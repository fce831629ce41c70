package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/service"
	"github.com/vedran77/frameverse/internal/transport/http/middleware"
)

// SessionConfig selects how issued tokens reach the client.
type SessionConfig struct {
	UseCookie    bool
	CookieSecure bool
}

type AuthHandler struct {
	authService *service.AuthService
	session     SessionConfig
	errs        *ErrorStage
}

func NewAuthHandler(authService *service.AuthService, session SessionConfig, errs *ErrorStage) *AuthHandler {
	return &AuthHandler{authService: authService, session: session, errs: errs}
}

type sessionUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	res, err := h.authService.Register(r.Context(), input)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	h.writeSession(w, http.StatusCreated, "User created", res)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	res, err := h.authService.Login(r.Context(), input)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	h.writeSession(w, http.StatusOK, "Login successful", res)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.session.UseCookie {
		http.SetCookie(w, h.cookie("", time.Unix(0, 0), -1))
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.UpdateProfileInput
	if err := decodeJSON(r, &input); err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Profile updated", "user": user})
}

func (h *AuthHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	upload, closeUpload, err := readUpload(r)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}
	defer closeUpload()

	user, err := h.authService.SetAvatar(r.Context(), userID, upload)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Avatar updated", "user": user})
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, status int, message string, res *service.AuthResult) {
	body := map[string]any{
		"message": message,
		"user":    newSessionUser(res.User),
	}
	if h.session.UseCookie {
		http.SetCookie(w, h.cookie(res.Token, time.Now().Add(service.TokenTTL), int(service.TokenTTL.Seconds())))
	} else {
		body["token"] = res.Token
	}
	writeJSON(w, status, body)
}

func (h *AuthHandler) cookie(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func newSessionUser(u *domain.User) sessionUser {
	return sessionUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

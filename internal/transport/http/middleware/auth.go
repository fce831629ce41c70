package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// TokenCookie is the cookie that carries the token in cookie transport mode.
const TokenCookie = "token"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TokenVerifier resolves a token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Authenticator reads tokens from exactly one transport: the Authorization
// header, or the token cookie.
type Authenticator struct {
	verifier  TokenVerifier
	useCookie bool
}

func NewAuthenticator(verifier TokenVerifier, useCookie bool) *Authenticator {
	return &Authenticator{verifier: verifier, useCookie: useCookie}
}

// Auth rejects requests without a valid token with 401.
func (a *Authenticator) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := a.identify(r)
		if !ok {
			writeUnauthorized(w)
			return
		}
		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the user id when a valid token is present and never rejects.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := a.identify(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), UserIDKey, userID))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) identify(r *http.Request) (uuid.UUID, bool) {
	token := a.token(r)
	if token == "" {
		return uuid.Nil, false
	}
	userID, err := a.verifier.Verify(token)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func (a *Authenticator) token(r *http.Request) string {
	if a.useCookie {
		c, err := r.Cookie(TokenCookie)
		if err != nil {
			return ""
		}
		return c.Value
	}
	return BearerToken(r)
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Not authorized"})
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) uuid.UUID {
	return ctx.Value(UserIDKey).(uuid.UUID)
}

// UserIDFromContext reports the user id attached by Auth or OptionalAuth.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return id, ok
}

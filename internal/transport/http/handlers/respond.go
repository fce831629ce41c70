package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/hlog"
	"github.com/vedran77/frameverse/internal/repository"
	"github.com/vedran77/frameverse/internal/service"
	"github.com/vedran77/frameverse/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// requestError is a malformed request detected by a handler before any
// service call.
type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

var (
	errInvalidBody = &requestError{"Invalid request body"}
	errInvalidID   = &requestError{"Invalid id"}
)

type apiError struct {
	status  int
	message string
}

var serviceErrors = []struct {
	err error
	apiError
}{
	{service.ErrInvalidCreds, apiError{http.StatusBadRequest, "Invalid email or password"}},
	{service.ErrUserNotFound, apiError{http.StatusNotFound, "User not found"}},
	{service.ErrImageRequired, apiError{http.StatusBadRequest, "Image is required"}},
	{service.ErrFollowSelf, apiError{http.StatusBadRequest, "You can't follow yourself"}},
	{service.ErrUnfollowSelf, apiError{http.StatusBadRequest, "You can't unfollow yourself"}},
	{service.ErrAlreadyFollowing, apiError{http.StatusBadRequest, "Already following this user"}},
	{service.ErrNotFollowing, apiError{http.StatusBadRequest, "You are not following this user"}},
	{service.ErrInvalidPagination, apiError{http.StatusBadRequest, "Invalid pagination parameters"}},
	{service.ErrPostNotFound, apiError{http.StatusNotFound, "Post not found"}},
	{service.ErrNotPostOwner, apiError{http.StatusForbidden, "You are not allowed to modify this post"}},
	{service.ErrChatNotFound, apiError{http.StatusNotFound, "Chat not found"}},
	{service.ErrChatAccessDenied, apiError{http.StatusForbidden, "Access denied"}},
	{service.ErrTalkingToYourself, apiError{http.StatusBadRequest, "Talking to yourself?"}},
	{service.ErrGroupTooSmall, apiError{http.StatusBadRequest, "Group needs 3+ users"}},
	{service.ErrNotGroupChat, apiError{http.StatusBadRequest, "Not a group chat"}},
	{service.ErrAdminsOnly, apiError{http.StatusForbidden, "Admins only"}},
	{service.ErrAlreadyInGroup, apiError{http.StatusBadRequest, "User already in group"}},
	{service.ErrMessageFieldsRequired, apiError{http.StatusBadRequest, "chatId and content are required"}},
	{storage.ErrUnsupportedType, apiError{http.StatusBadRequest, "Unsupported image type"}},
}

// ErrorStage turns every handler error into a response. Internal errors are
// logged and, in production, reported without detail.
type ErrorStage struct {
	production bool
}

func NewErrorStage(production bool) *ErrorStage {
	return &ErrorStage{production: production}
}

func (s *ErrorStage) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr *requestError
		valErr *service.ValidationError
		dupErr *repository.DuplicateError
	)
	switch {
	case errors.As(err, &reqErr):
		writeError(w, http.StatusBadRequest, reqErr.message)
		return
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Validation failed",
			"errors":  valErr.Fields,
		})
		return
	case errors.As(err, &dupErr):
		writeJSON(w, http.StatusConflict, map[string]string{
			"field":   dupErr.Field,
			"message": dupErr.Error(),
		})
		return
	}

	for _, known := range serviceErrors {
		if errors.Is(err, known.err) {
			writeError(w, known.status, known.message)
			return
		}
	}

	hlog.FromRequest(r).Error().Err(err).Msg("unhandled error")
	message := "Something went wrong"
	if !s.production {
		message = err.Error()
	}
	writeError(w, http.StatusInternalServerError, message)
}

// Recover is the panic hook for middleware.Recoverer.
func (s *ErrorStage) Recover(w http.ResponseWriter, r *http.Request, err error) {
	s.writeServiceError(w, r, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

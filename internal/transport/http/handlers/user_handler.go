package handlers

import (
	"net/http"
	"strconv"

	"github.com/vedran77/frameverse/internal/service"
	"github.com/vedran77/frameverse/internal/transport/http/middleware"
)

type UserHandler struct {
	userService *service.UserService
	feedService *service.FeedService
	errs        *ErrorStage
}

func NewUserHandler(userService *service.UserService, feedService *service.FeedService, errs *ErrorStage) *UserHandler {
	return &UserHandler{userService: userService, feedService: feedService, errs: errs}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.userService.OwnProfile(r.Context(), userID)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	// anonymous viewers get uuid.Nil and isFollowing false
	viewerID, _ := middleware.UserIDFromContext(r.Context())
	userID, err := pathID(r, "id")
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	profile, err := h.userService.PublicProfile(r.Context(), viewerID, userID)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	users, err := h.userService.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	targetID, err := pathID(r, "id")
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	if err := h.userService.Follow(r.Context(), userID, targetID); err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User followed"})
}

func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	targetID, err := pathID(r, "id")
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	if err := h.userService.Unfollow(r.Context(), userID, targetID); err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User unfollowed"})
}

func (h *UserHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var q service.FeedQuery
	for name, dst := range map[string]*int{"page": &q.Page, "limit": &q.Limit} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v == 0 {
			h.errs.writeServiceError(w, r, service.ErrInvalidPagination)
			return
		}
		*dst = v
	}

	page, err := h.feedService.Feed(r.Context(), userID, q)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

package handlers

import (
	"net/http"

	"github.com/vedran77/frameverse/internal/service"
	"github.com/vedran77/frameverse/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
	errs        *ErrorStage
}

func NewPostHandler(postService *service.PostService, errs *ErrorStage) *PostHandler {
	return &PostHandler{postService: postService, errs: errs}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if !isMultipart(r) {
		h.errs.writeServiceError(w, r, service.ErrImageRequired)
		return
	}
	upload, closeUpload, err := readUpload(r)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}
	defer closeUpload()

	input := service.CreatePostInput{
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
	}
	post, err := h.postService.Create(r.Context(), userID, input, upload)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Post created successfully", "post": post})
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	post, err := h.postService.Get(r.Context(), postID)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// Update accepts multipart (optionally with a new image) or JSON.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID, err := pathID(r, "id")
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	var (
		input  service.UpdatePostInput
		upload *service.Upload
	)
	if isMultipart(r) {
		var closeUpload func()
		upload, closeUpload, err = readUpload(r)
		if err != nil {
			h.errs.writeServiceError(w, r, err)
			return
		}
		defer closeUpload()

		if vals, ok := r.MultipartForm.Value["description"]; ok && len(vals) > 0 {
			input.Description = &vals[0]
		}
		if vals, ok := r.MultipartForm.Value["location"]; ok && len(vals) > 0 {
			input.Location = &vals[0]
		}
	} else if err := decodeJSON(r, &input); err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	post, err := h.postService.Update(r.Context(), userID, postID, input, upload)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Post updated successfully", "post": post})
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID, err := pathID(r, "id")
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	if err := h.postService.Delete(r.Context(), userID, postID); err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID, err := pathID(r, "id")
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	res, err := h.postService.ToggleLike(r.Context(), userID, postID)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

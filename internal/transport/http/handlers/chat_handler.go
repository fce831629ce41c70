package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/service"
	"github.com/vedran77/frameverse/internal/transport/http/middleware"
)

type ChatHandler struct {
	chatService *service.ChatService
	errs        *ErrorStage
}

func NewChatHandler(chatService *service.ChatService, errs *ErrorStage) *ChatHandler {
	return &ChatHandler{chatService: chatService, errs: errs}
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	chats, err := h.chatService.List(r.Context(), userID)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chats)
}

func (h *ChatHandler) CreateDirect(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		OtherUserID string `json:"otherUserId"`
	}
	if err := decodeJSON(r, &input); err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}
	otherID, err := uuid.Parse(input.OtherUserID)
	if err != nil {
		h.errs.writeServiceError(w, r, service.ErrUserNotFound)
		return
	}

	chat, created, err := h.chatService.CreateDirect(r.Context(), userID, otherID)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, chat)
}

func (h *ChatHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateGroupInput
	if err := decodeJSON(r, &input); err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	chat, err := h.chatService.CreateGroup(r.Context(), userID, input)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, chat)
}

func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID, err := pathID(r, "chatId")
	if err != nil {
		h.errs.writeServiceError(w, r, service.ErrChatNotFound)
		return
	}

	chat, err := h.chatService.Get(r.Context(), userID, chatID)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chat)
}

func (h *ChatHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID, err := pathID(r, "chatId")
	if err != nil {
		h.errs.writeServiceError(w, r, service.ErrChatNotFound)
		return
	}

	var input struct {
		UserID string `json:"userId"`
	}
	if err := decodeJSON(r, &input); err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}
	newUserID, err := uuid.Parse(input.UserID)
	if err != nil {
		h.errs.writeServiceError(w, r, service.ErrUserNotFound)
		return
	}

	chat, err := h.chatService.AddUser(r.Context(), userID, chatID, newUserID)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chat)
}

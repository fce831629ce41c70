package handlers

import (
	"net/http"

	"github.com/vedran77/frameverse/internal/service"
	"github.com/vedran77/frameverse/internal/transport/http/middleware"
)

type MessageHandler struct {
	messageService *service.MessageService
	errs           *ErrorStage
}

func NewMessageHandler(messageService *service.MessageService, errs *ErrorStage) *MessageHandler {
	return &MessageHandler{messageService: messageService, errs: errs}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.SendMessageInput
	if err := decodeJSON(r, &input); err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	msg, err := h.messageService.Send(r.Context(), userID, input)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID, err := pathID(r, "chatId")
	if err != nil {
		h.errs.writeServiceError(w, r, service.ErrChatNotFound)
		return
	}

	messages, err := h.messageService.List(r.Context(), userID, chatID)
	if err != nil {
		h.errs.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

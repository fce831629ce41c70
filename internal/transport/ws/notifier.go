package ws

import (
	"context"

	"github.com/vedran77/frameverse/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(msg *domain.Message) {
	n.hub.Broadcast(context.Background(), chatRoom(msg.ChatID), EventNewMessage, NewMessagePayload{
		Message:  msg,
		SenderID: msg.SenderID,
	}, nil)
}

// NotifyChatCreated tells every participant's personal room about the chat.
func (n *HubNotifier) NotifyChatCreated(chat *domain.Chat) {
	for _, userID := range chat.Users {
		n.hub.Broadcast(context.Background(), userRoom(userID), EventChatCreated, chat, nil)
	}
}

package ws

import (
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/vedran77/frameverse/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client → Server
const (
	EventSetup      = "setup"
	EventJoinChat   = "join-chat"
	EventLeaveChat  = "leave-chat"
	EventTyping     = "typing"
	EventStopTyping = "stop-typing"
)

// Server → Client
const (
	EventConnected   = "connected"
	EventSetupError  = "setup-error"
	EventJoinedChat  = "joined-chat"
	EventJoinError   = "join-error"
	EventNewMessage  = "new-message"
	EventChatCreated = "chat-created"
	EventError       = "error"
)

// Event is the envelope of every frame in both directions.
type Event struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data,omitempty"`
}

type outgoing struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type SetupPayload struct {
	UserID string `json:"userId"`
	Token  string `json:"token,omitempty"`
}

type TypingPayload struct {
	ChatID uuid.UUID `json:"chatId"`
	UserID uuid.UUID `json:"userId"`
}

type NewMessagePayload struct {
	Message  *domain.Message `json:"message"`
	SenderID uuid.UUID       `json:"senderId"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	return json.Marshal(outgoing{Event: event, Data: data})
}

func userRoom(id uuid.UUID) string { return "user:" + id.String() }

func chatRoom(id uuid.UUID) string { return "chat:" + id.String() }

package ws

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Publisher forwards broadcasts to other server instances.
type Publisher interface {
	Publish(ctx context.Context, env *Envelope) error
}

// Envelope is one broadcast as it travels between instances.
type Envelope struct {
	Room    string `msgpack:"room"`
	Data    []byte `msgpack:"data"`
	Exclude string `msgpack:"exclude,omitempty"`
	Origin  string `msgpack:"origin"`
}

// Hub tracks room membership for the sockets of this instance.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}

	origin    string
	publisher Publisher
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		origin: uuid.NewString(),
	}
}

// SetPublisher enables cross-instance fan-out.
func (h *Hub) SetPublisher(p Publisher) {
	h.publisher = p
}

func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

func (h *Hub) Leave(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(room, c)
}

// LeaveAll removes the client from every room it is in.
func (h *Hub) LeaveAll(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.rooms {
		h.leave(room, c)
	}
}

func (h *Hub) leave(room string, c *Client) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Members reports how many local sockets are in the room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast sends an event to every socket in the room except exclude, which may be nil.
func (h *Hub) Broadcast(ctx context.Context, room, event string, data any, exclude *Client) {
	frame, err := encodeEvent(event, data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws: encoding event")
		return
	}

	env := &Envelope{Room: room, Data: frame, Origin: h.origin}
	if exclude != nil {
		env.Exclude = exclude.id
	}
	h.deliver(env)

	if h.publisher != nil {
		if err := h.publisher.Publish(ctx, env); err != nil {
			log.Warn().Err(err).Str("room", room).Msg("ws: relay publish failed")
		}
	}
}

// Deliver hands an envelope from another instance to local room members.
// Envelopes this hub published itself are ignored.
func (h *Hub) Deliver(env *Envelope) {
	if env.Origin == h.origin {
		return
	}
	h.deliver(env)
}

func (h *Hub) deliver(env *Envelope) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[env.Room]))
	for c := range h.rooms[env.Room] {
		if env.Exclude != "" && c.id == env.Exclude {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(env.Data) {
			log.Warn().Str("client", c.id).Msg("ws: send buffer full, dropping client")
			h.LeaveAll(c)
			c.close()
		}
	}
}

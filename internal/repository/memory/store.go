// Package memory is an in-process implementation of the repository
// interfaces. It backs the "memory" database driver and the test suites.
package memory

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vedran77/frameverse/internal/domain"
)

// Store holds every collection behind one lock so that each repository call
// is atomic at the document level, like the real stores.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*domain.User
	posts    map[uuid.UUID]*domain.Post
	chats    map[uuid.UUID]*domain.Chat
	messages map[uuid.UUID]*domain.Message
}

func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*domain.User),
		posts:    make(map[uuid.UUID]*domain.Post),
		chats:    make(map[uuid.UUID]*domain.Chat),
		messages: make(map[uuid.UUID]*domain.Message),
	}
}

func (s *Store) Users() *UserRepo       { return &UserRepo{s: s} }
func (s *Store) Posts() *PostRepo       { return &PostRepo{s: s} }
func (s *Store) Chats() *ChatRepo       { return &ChatRepo{s: s} }
func (s *Store) Messages() *MessageRepo { return &MessageRepo{s: s} }

func cloneIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return slices.Clone(ids)
}

func addID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	if lo.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	return lo.Without(ids, id)
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Posts = cloneIDs(u.Posts)
	c.Followers = cloneIDs(u.Followers)
	c.Following = cloneIDs(u.Following)
	if u.Age != nil {
		age := *u.Age
		c.Age = &age
	}
	if u.Avatar != nil {
		avatar := *u.Avatar
		c.Avatar = &avatar
	}
	return &c
}

func clonePost(p *domain.Post) domain.Post {
	c := *p
	c.Likes = cloneIDs(p.Likes)
	c.LikesCount = len(p.Likes)
	c.Owner = nil
	return c
}

func cloneChat(c *domain.Chat) domain.Chat {
	out := *c
	out.Users = cloneIDs(c.Users)
	out.Admins = cloneIDs(c.Admins)
	out.Participants = nil
	out.LastMessage = nil
	if c.LastMessageID != nil {
		id := *c.LastMessageID
		out.LastMessageID = &id
	}
	return out
}

// populateMessage must be called with s.mu held.
func (s *Store) populateMessage(m *domain.Message) domain.Message {
	out := *m
	if u, ok := s.users[m.SenderID]; ok {
		out.Sender = &domain.MessageSender{ID: u.ID, Username: u.Username, Email: u.Email}
	}
	return out
}

// Package mongo implements the repository interfaces on MongoDB. Ids are
// stored as canonical uuid strings so documents stay readable in the shell.
package mongo

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
)

type imageDoc struct {
	URL     string `bson:"url"`
	AssetID string `bson:"asset_id,omitempty"`
}

type userDoc struct {
	ID            string    `bson:"_id"`
	Username      string    `bson:"username"`
	UsernameLower string    `bson:"username_lower"`
	Email         string    `bson:"email"`
	PasswordHash  string    `bson:"password_hash,omitempty"`
	Age           *int      `bson:"age,omitempty"`
	Bio           string    `bson:"bio"`
	Avatar        *imageDoc `bson:"avatar,omitempty"`
	Posts         []string  `bson:"posts"`
	Followers     []string  `bson:"followers"`
	Following     []string  `bson:"following"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

type postDoc struct {
	ID          string    `bson:"_id"`
	OwnerID     string    `bson:"owner_id"`
	Image       imageDoc  `bson:"image"`
	Description string    `bson:"description"`
	Location    string    `bson:"location"`
	Likes       []string  `bson:"likes"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type chatDoc struct {
	ID            string    `bson:"_id"`
	Users         []string  `bson:"users"`
	IsGroup       bool      `bson:"is_group"`
	Type          *string   `bson:"type,omitempty"`
	Title         *string   `bson:"title,omitempty"`
	Description   *string   `bson:"description,omitempty"`
	Image         *string   `bson:"image,omitempty"`
	Admins        []string  `bson:"admins"`
	LastMessageID *string   `bson:"last_message_id,omitempty"`
	LastMessageAt time.Time `bson:"last_message_at"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
	// LastMessage is filled by the $lookup stage.
	LastMessage []messageDoc `bson:"last_message,omitempty"`
}

type messageDoc struct {
	ID        string    `bson:"_id"`
	ChatID    string    `bson:"chat_id"`
	SenderID  string    `bson:"sender_id"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
	// Sender is filled by the $lookup stage.
	Sender []userDoc `bson:"sender,omitempty"`
}

func idString(id uuid.UUID) string {
	return id.String()
}

func idStrings(ids []uuid.UUID) []string {
	return lo.Map(ids, func(id uuid.UUID, _ int) string { return id.String() })
}

func parseID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}

func parseIDs(ss []string) []uuid.UUID {
	return lo.FilterMap(ss, func(s string, _ int) (uuid.UUID, bool) {
		id, err := uuid.Parse(s)
		return id, err == nil
	})
}

func newUserDoc(u *domain.User) userDoc {
	d := userDoc{
		ID:            idString(u.ID),
		Username:      u.Username,
		UsernameLower: strings.ToLower(u.Username),
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Age:           u.Age,
		Bio:           u.Bio,
		Posts:         idStrings(u.Posts),
		Followers:     idStrings(u.Followers),
		Following:     idStrings(u.Following),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.Avatar != nil {
		d.Avatar = &imageDoc{URL: u.Avatar.URL, AssetID: u.Avatar.AssetID}
	}
	return d
}

func (d userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:           parseID(d.ID),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Age:          d.Age,
		Bio:          d.Bio,
		Posts:        parseIDs(d.Posts),
		Followers:    parseIDs(d.Followers),
		Following:    parseIDs(d.Following),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.Avatar != nil {
		u.Avatar = &domain.Image{URL: d.Avatar.URL, AssetID: d.Avatar.AssetID}
	}
	return u
}

func (d userDoc) toSummary() domain.UserSummary {
	s := domain.UserSummary{ID: parseID(d.ID), Username: d.Username}
	if d.Avatar != nil {
		s.AvatarURL = d.Avatar.URL
	}
	return s
}

func newPostDoc(p *domain.Post) postDoc {
	return postDoc{
		ID:          idString(p.ID),
		OwnerID:     idString(p.OwnerID),
		Image:       imageDoc{URL: p.Image.URL, AssetID: p.Image.AssetID},
		Description: p.Description,
		Location:    p.Location,
		Likes:       idStrings(p.Likes),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d postDoc) toDomain() domain.Post {
	likes := parseIDs(d.Likes)
	return domain.Post{
		ID:          parseID(d.ID),
		OwnerID:     parseID(d.OwnerID),
		Image:       domain.Image{URL: d.Image.URL, AssetID: d.Image.AssetID},
		Description: d.Description,
		Location:    d.Location,
		Likes:       likes,
		LikesCount:  len(likes),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func newChatDoc(c *domain.Chat) chatDoc {
	d := chatDoc{
		ID:            idString(c.ID),
		Users:         idStrings(c.Users),
		IsGroup:       c.IsGroup,
		Type:          c.Type,
		Title:         c.Title,
		Description:   c.Description,
		Image:         c.Image,
		Admins:        idStrings(c.Admins),
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.LastMessageID != nil {
		id := idString(*c.LastMessageID)
		d.LastMessageID = &id
	}
	return d
}

func (d chatDoc) toDomain() domain.Chat {
	c := domain.Chat{
		ID:            parseID(d.ID),
		Users:         parseIDs(d.Users),
		IsGroup:       d.IsGroup,
		Type:          d.Type,
		Title:         d.Title,
		Description:   d.Description,
		Image:         d.Image,
		Admins:        parseIDs(d.Admins),
		LastMessageAt: d.LastMessageAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.LastMessageID != nil {
		id := parseID(*d.LastMessageID)
		c.LastMessageID = &id
	}
	if len(d.LastMessage) > 0 {
		m := d.LastMessage[0].toDomain()
		c.LastMessage = &m
	}
	return c
}

func (d messageDoc) toDomain() domain.Message {
	m := domain.Message{
		ID:        parseID(d.ID),
		ChatID:    parseID(d.ChatID),
		SenderID:  parseID(d.SenderID),
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
	}
	if len(d.Sender) > 0 {
		s := d.Sender[0]
		m.Sender = &domain.MessageSender{ID: parseID(s.ID), Username: s.Username, Email: s.Email}
	}
	return m
}

// translateError maps unique index violations to repository.DuplicateError.
func translateError(err error) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "username_unique"):
		return &repository.DuplicateError{Field: "username"}
	case strings.Contains(msg, "email_unique"):
		return &repository.DuplicateError{Field: "email"}
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
)

func TestCreateDirectChat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	if _, _, err := env.chatSvc.CreateDirect(ctx, alice.ID, alice.ID); !errors.Is(err, ErrTalkingToYourself) {
		t.Errorf("expected ErrTalkingToYourself, got %v", err)
	}
	if _, _, err := env.chatSvc.CreateDirect(ctx, alice.ID, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	chat, created, err := env.chatSvc.CreateDirect(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}
	if !created || chat.IsGroup || len(chat.Participants) != 2 {
		t.Errorf("unexpected chat %+v (created=%v)", chat, created)
	}
	if len(env.notifier.chats) != 1 {
		t.Errorf("expected one chat-created notification, got %d", len(env.notifier.chats))
	}

	again, created, err := env.chatSvc.CreateDirect(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("CreateDirect again: %v", err)
	}
	if created || again.ID != chat.ID {
		t.Errorf("expected the existing chat to be returned, got %s (created=%v)", again.ID, created)
	}
}

func TestCreateGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")

	_, err := env.chatSvc.CreateGroup(ctx, alice.ID, CreateGroupInput{Title: "pair", UsersID: []uuid.UUID{bob.ID, bob.ID, alice.ID}})
	if !errors.Is(err, ErrGroupTooSmall) {
		t.Errorf("expected ErrGroupTooSmall, got %v", err)
	}

	_, err = env.chatSvc.CreateGroup(ctx, alice.ID, CreateGroupInput{Title: "ghost", UsersID: []uuid.UUID{bob.ID, uuid.New()}})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	bad := "documentary"
	_, err = env.chatSvc.CreateGroup(ctx, alice.ID, CreateGroupInput{Title: "x", UsersID: []uuid.UUID{bob.ID, carol.ID}, Type: &bad})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["type"] == "" {
		t.Errorf("expected type validation error, got %v", err)
	}

	kind := "anime"
	chat, err := env.chatSvc.CreateGroup(ctx, alice.ID, CreateGroupInput{Title: " Watch party ", UsersID: []uuid.UUID{bob.ID, carol.ID}, Type: &kind})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if !chat.IsGroup || *chat.Title != "Watch party" || len(chat.Users) != 3 || !chat.IsAdmin(alice.ID) || chat.IsAdmin(bob.ID) {
		t.Errorf("unexpected group %+v", chat)
	}
}

func TestChatAccessControl(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	mallory := env.register(t, "mallory")

	chat, _, err := env.chatSvc.CreateDirect(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}

	if _, err := env.chatSvc.Get(ctx, mallory.ID, chat.ID); !errors.Is(err, ErrChatAccessDenied) {
		t.Errorf("expected ErrChatAccessDenied, got %v", err)
	}
	if _, err := env.chatSvc.Get(ctx, alice.ID, uuid.New()); !errors.Is(err, ErrChatNotFound) {
		t.Errorf("expected ErrChatNotFound, got %v", err)
	}

	broken := &domain.Chat{
		ID:            uuid.New(),
		Users:         []uuid.UUID{alice.ID, bob.ID, mallory.ID},
		LastMessageAt: time.Now(),
	}
	if err := env.store.Chats().Create(ctx, broken); err != nil {
		t.Fatalf("seeding chat: %v", err)
	}
	if err := env.chatSvc.Authorize(ctx, broken.ID, alice.ID); !errors.Is(err, ErrInvalidChatState) {
		t.Errorf("expected ErrInvalidChatState, got %v", err)
	}
}

func TestAddUserToGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")
	dave := env.register(t, "dave")

	group, err := env.chatSvc.CreateGroup(ctx, alice.ID, CreateGroupInput{Title: "g", UsersID: []uuid.UUID{bob.ID, carol.ID}})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	direct, _, err := env.chatSvc.CreateDirect(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}

	tests := []struct {
		name   string
		caller uuid.UUID
		chat   uuid.UUID
		user   uuid.UUID
		want   error
	}{
		{"not a group", alice.ID, direct.ID, dave.ID, ErrNotGroupChat},
		{"not an admin", bob.ID, group.ID, dave.ID, ErrAdminsOnly},
		{"outsider", dave.ID, group.ID, dave.ID, ErrChatAccessDenied},
		{"unknown user", alice.ID, group.ID, uuid.New(), ErrUserNotFound},
		{"already member", alice.ID, group.ID, carol.ID, ErrAlreadyInGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.chatSvc.AddUser(ctx, tt.caller, tt.chat, tt.user); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	updated, err := env.chatSvc.AddUser(ctx, alice.ID, group.ID, dave.ID)
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if !updated.HasParticipant(dave.ID) || len(updated.Participants) != 4 {
		t.Errorf("dave should be a participant: %+v", updated.Users)
	}
}

func TestListChatsByActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")

	withBob, _, err := env.chatSvc.CreateDirect(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}
	withCarol, _, err := env.chatSvc.CreateDirect(ctx, alice.ID, carol.ID)
	if err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}
	if err := env.store.Chats().SetLastMessage(ctx, withBob.ID, uuid.New(), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SetLastMessage: %v", err)
	}

	chats, err := env.chatSvc.List(ctx, alice.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(chats) != 2 || chats[0].ID != withBob.ID || chats[1].ID != withCarol.ID {
		t.Errorf("unexpected order: %+v", chats)
	}
}

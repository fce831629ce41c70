package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	mallory := env.register(t, "mallory")

	chat, _, err := env.chatSvc.CreateDirect(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}

	msg, err := env.messages.Send(ctx, alice.ID, SendMessageInput{ChatID: chat.ID.String(), Content: " hi bob "})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Content != "hi bob" || msg.Sender == nil || msg.Sender.Username != "alice" || msg.Sender.Email != "alice@example.com" {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(env.notifier.messages) != 1 || env.notifier.messages[0].ID != msg.ID {
		t.Errorf("expected a new-message notification")
	}

	loaded, err := env.chatSvc.Get(ctx, bob.ID, chat.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.LastMessage == nil || loaded.LastMessage.ID != msg.ID {
		t.Errorf("last message pointer not updated: %+v", loaded.LastMessage)
	}

	if _, err := env.messages.Send(ctx, mallory.ID, SendMessageInput{ChatID: chat.ID.String(), Content: "hey"}); !errors.Is(err, ErrChatAccessDenied) {
		t.Errorf("expected ErrChatAccessDenied, got %v", err)
	}
	if _, err := env.messages.List(ctx, mallory.ID, chat.ID); !errors.Is(err, ErrChatAccessDenied) {
		t.Errorf("expected ErrChatAccessDenied, got %v", err)
	}
}

func TestSendMessageRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	chat, _, err := env.chatSvc.CreateDirect(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}

	if _, err := env.messages.Send(ctx, alice.ID, SendMessageInput{Content: "hi"}); !errors.Is(err, ErrMessageFieldsRequired) {
		t.Errorf("missing chat: expected ErrMessageFieldsRequired, got %v", err)
	}
	if _, err := env.messages.Send(ctx, alice.ID, SendMessageInput{ChatID: chat.ID.String(), Content: "   "}); !errors.Is(err, ErrMessageFieldsRequired) {
		t.Errorf("blank content: expected ErrMessageFieldsRequired, got %v", err)
	}
	if _, err := env.messages.Send(ctx, alice.ID, SendMessageInput{ChatID: "nope", Content: "hi"}); !errors.Is(err, ErrChatNotFound) {
		t.Errorf("bad id: expected ErrChatNotFound, got %v", err)
	}

	_, err = env.messages.Send(ctx, alice.ID, SendMessageInput{ChatID: chat.ID.String(), Content: strings.Repeat("x", 2001)})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSendMessagePartialFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	chat, _, err := env.chatSvc.CreateDirect(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}

	env.chats.failSetLastMessage = true
	if _, err := env.messages.Send(ctx, alice.ID, SendMessageInput{ChatID: chat.ID.String(), Content: "lost pointer"}); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected fault, got %v", err)
	}
	env.chats.failSetLastMessage = false

	msgs, err := env.messages.List(ctx, alice.ID, chat.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "lost pointer" {
		t.Errorf("message should be stored: %+v", msgs)
	}

	loaded, err := env.chatSvc.Get(ctx, alice.ID, chat.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.LastMessage != nil {
		t.Error("last message pointer should be stale")
	}
	if len(env.notifier.messages) != 0 {
		t.Error("no notification after a failed send")
	}
}

func TestListMessagesOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	chat, _, err := env.chatSvc.CreateDirect(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}
	for _, content := range []string{"one", "two", "three"} {
		if _, err := env.messages.Send(ctx, bob.ID, SendMessageInput{ChatID: chat.ID.String(), Content: content}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	msgs, err := env.messages.List(ctx, alice.ID, chat.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var got []string
	for _, m := range msgs {
		got = append(got, m.Content)
	}
	if strings.Join(got, ",") != "one,two,three" {
		t.Errorf("order = %v", got)
	}
}

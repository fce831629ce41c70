package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/service"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type fakeChats struct {
	members map[uuid.UUID][]uuid.UUID
}

func (f *fakeChats) Authorize(_ context.Context, chatID, userID uuid.UUID) error {
	users, ok := f.members[chatID]
	if !ok {
		return service.ErrChatNotFound
	}
	for _, u := range users {
		if u == userID {
			return nil
		}
	}
	return service.ErrChatAccessDenied
}

type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type testServer struct {
	url    string
	hub    *Hub
	tokens *service.TokenIssuer
}

func newTestServer(t *testing.T, chats *fakeChats) *testServer {
	t.Helper()
	hub := NewHub()
	tokens := service.NewTokenIssuer("test-secret")
	srv := httptest.NewServer(NewHandler(hub, chats, tokens, nil))
	t.Cleanup(srv.Close)
	return &testServer{url: "ws" + strings.TrimPrefix(srv.URL, "http"), hub: hub, tokens: tokens}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, frame{Event: event, Data: data}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func expect(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var got frame
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("waiting for %s: %v", event, err)
	}
	if diff := cmp.Diff(frame{Event: event, Data: data}, got); diff != "" {
		t.Fatalf("unexpected frame (-want +got):\n%s", diff)
	}
}

func TestJoinBeforeSetup(t *testing.T) {
	ts := newTestServer(t, &fakeChats{})
	conn := dial(t, ts.url)

	send(t, conn, EventJoinChat, uuid.NewString())
	expect(t, conn, EventJoinError, "Not authenticated")
}

func TestSetupRequiresVerifiedToken(t *testing.T) {
	ts := newTestServer(t, &fakeChats{})
	alice, mallory := uuid.New(), uuid.New()
	token, _ := ts.tokens.Issue(mallory)

	conn := dial(t, ts.url)
	send(t, conn, EventSetup, alice.String())
	expect(t, conn, EventSetupError, "Not authenticated")

	send(t, conn, EventSetup, map[string]string{"userId": alice.String(), "token": token})
	expect(t, conn, EventSetupError, "Not authenticated")

	send(t, conn, EventSetup, map[string]string{"userId": alice.String(), "token": "garbage"})
	expect(t, conn, EventSetupError, "Not authenticated")
}

func TestChatRoomFlow(t *testing.T) {
	alice, bob, eve := uuid.New(), uuid.New(), uuid.New()
	chatID := uuid.New()
	ts := newTestServer(t, &fakeChats{members: map[uuid.UUID][]uuid.UUID{chatID: {alice, bob}}})

	aliceToken, _ := ts.tokens.Issue(alice)
	bobToken, _ := ts.tokens.Issue(bob)
	eveToken, _ := ts.tokens.Issue(eve)

	a := dial(t, ts.url)
	send(t, a, EventSetup, map[string]string{"userId": alice.String(), "token": aliceToken})
	expect(t, a, EventConnected, alice.String())

	// bob proves identity on the upgrade request instead of in the frame
	b := dial(t, ts.url+"?token="+bobToken)
	send(t, b, EventSetup, bob.String())
	expect(t, b, EventConnected, bob.String())

	e := dial(t, ts.url)
	send(t, e, EventSetup, map[string]string{"token": eveToken})
	expect(t, e, EventConnected, eve.String())

	send(t, a, EventJoinChat, chatID.String())
	expect(t, a, EventJoinedChat, chatID.String())
	send(t, b, EventJoinChat, chatID.String())
	expect(t, b, EventJoinedChat, chatID.String())

	send(t, e, EventJoinChat, chatID.String())
	expect(t, e, EventJoinError, "Access denied")
	send(t, e, EventJoinChat, uuid.NewString())
	expect(t, e, EventJoinError, "Chat not found")

	send(t, a, EventTyping, chatID.String())
	expect(t, b, EventTyping, map[string]any{"chatId": chatID.String(), "userId": alice.String()})

	msg := &domain.Message{ID: uuid.New(), ChatID: chatID, SenderID: bob, Content: "hi"}
	NewHubNotifier(ts.hub).NotifyNewMessage(msg)

	// alice must not have received her own typing event; the next frame is the message
	for _, conn := range []*websocket.Conn{a, b} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var got struct {
			Event string            `json:"event"`
			Data  NewMessagePayload `json:"data"`
		}
		err := wsjson.Read(ctx, conn, &got)
		cancel()
		if err != nil {
			t.Fatalf("reading new-message: %v", err)
		}
		if got.Event != EventNewMessage || got.Data.SenderID != bob || got.Data.Message.Content != "hi" {
			t.Fatalf("unexpected frame %+v", got)
		}
	}

	send(t, e, "dance", nil)
	expect(t, e, EventError, "Unknown event: dance")
}

func TestTypingRequiresJoin(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	chatID := uuid.New()
	ts := newTestServer(t, &fakeChats{members: map[uuid.UUID][]uuid.UUID{chatID: {alice, bob}}})
	aliceToken, _ := ts.tokens.Issue(alice)
	bobToken, _ := ts.tokens.Issue(bob)

	a := dial(t, ts.url+"?token="+aliceToken)
	send(t, a, EventSetup, alice.String())
	expect(t, a, EventConnected, alice.String())

	b := dial(t, ts.url+"?token="+bobToken)
	send(t, b, EventSetup, bob.String())
	expect(t, b, EventConnected, bob.String())
	send(t, b, EventJoinChat, chatID.String())
	expect(t, b, EventJoinedChat, chatID.String())

	// alice never joined, so her typing is dropped
	send(t, a, EventTyping, chatID.String())
	send(t, a, EventJoinChat, chatID.String())
	expect(t, a, EventJoinedChat, chatID.String())
	send(t, a, EventStopTyping, chatID.String())

	expect(t, b, EventStopTyping, map[string]any{"chatId": chatID.String(), "userId": alice.String()})
}

type capturePublisher struct {
	envs []*Envelope
}

func (p *capturePublisher) Publish(_ context.Context, env *Envelope) error {
	p.envs = append(p.envs, env)
	return nil
}

func TestHubRelay(t *testing.T) {
	pub := &capturePublisher{}
	first := NewHub()
	first.SetPublisher(pub)
	second := NewHub()

	local := newClient(first, nil, nil, nil, "")
	remote := newClient(second, nil, nil, nil, "")
	skipped := newClient(second, nil, nil, nil, "")
	first.Join("chat:1", local)
	second.Join("chat:1", remote)
	second.Join("chat:1", skipped)

	first.Broadcast(context.Background(), "chat:1", EventTyping, "x", nil)
	if len(local.send) != 1 {
		t.Fatalf("local client got %d frames, want 1", len(local.send))
	}
	if len(pub.envs) != 1 {
		t.Fatalf("published %d envelopes, want 1", len(pub.envs))
	}

	payload, err := msgpack.Marshal(pub.envs[0])
	if err != nil {
		t.Fatal(err)
	}
	env, err := decodeEnvelope(payload)
	if err != nil {
		t.Fatal(err)
	}
	env.Exclude = skipped.id

	first.Deliver(env)
	if len(local.send) != 1 {
		t.Error("hub delivered its own envelope twice")
	}
	second.Deliver(env)
	if len(remote.send) != 1 || len(skipped.send) != 0 {
		t.Errorf("remote=%d skipped=%d, want 1 and 0", len(remote.send), len(skipped.send))
	}
	if got := string(<-remote.send); got != `{"event":"typing","data":"x"}` {
		t.Errorf("frame = %s", got)
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub()
	closed := false
	c := newClient(hub, nil, nil, nil, "")
	c.cancel = func() { closed = true }
	hub.Join("user:1", c)
	hub.Join("chat:1", c)

	for i := 0; i < sendBufSize; i++ {
		hub.Broadcast(context.Background(), "chat:1", EventTyping, i, nil)
	}
	if closed {
		t.Fatal("client dropped before its buffer filled")
	}
	hub.Broadcast(context.Background(), "chat:1", EventTyping, "overflow", nil)

	if !closed {
		t.Error("slow client was not closed")
	}
	if hub.Members("chat:1") != 0 || hub.Members("user:1") != 0 {
		t.Error("slow client still in rooms")
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/cache"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/repository"
	"github.com/vedran77/frameverse/internal/repository/memory"
	"github.com/vedran77/frameverse/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

var errInjected = errors.New("injected fault")

// faultyUsers fails the named methods with errInjected.
type faultyUsers struct {
	repository.UserRepository
	fail map[string]bool
}

func (f *faultyUsers) AddFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	if f.fail["AddFollower"] {
		return errInjected
	}
	return f.UserRepository.AddFollower(ctx, userID, followerID)
}

func (f *faultyUsers) RemoveFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	if f.fail["RemoveFollower"] {
		return errInjected
	}
	return f.UserRepository.RemoveFollower(ctx, userID, followerID)
}

func (f *faultyUsers) RemovePost(ctx context.Context, userID, postID uuid.UUID) error {
	if f.fail["RemovePost"] {
		return errInjected
	}
	return f.UserRepository.RemovePost(ctx, userID, postID)
}

func (f *faultyUsers) AddPost(ctx context.Context, userID, postID uuid.UUID) error {
	if f.fail["AddPost"] {
		return errInjected
	}
	return f.UserRepository.AddPost(ctx, userID, postID)
}

type faultyChats struct {
	repository.ChatRepository
	failSetLastMessage bool
}

func (f *faultyChats) SetLastMessage(ctx context.Context, chatID, messageID uuid.UUID, at time.Time) error {
	if f.failSetLastMessage {
		return errInjected
	}
	return f.ChatRepository.SetLastMessage(ctx, chatID, messageID, at)
}

type failingImages struct {
	*storage.MemoryStore
}

func (f failingImages) Delete(ctx context.Context, assetID string) error {
	return errInjected
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []domain.Message
	chats    []domain.Chat
}

func (n *recordingNotifier) NotifyNewMessage(msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, *msg)
}

func (n *recordingNotifier) NotifyChatCreated(chat *domain.Chat) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.chats = append(n.chats, *chat)
}

type testEnv struct {
	store     *memory.Store
	users     *faultyUsers
	chats     *faultyChats
	images    *storage.MemoryStore
	summaries *cache.SummaryCache
	tokens    *TokenIssuer
	auth      *AuthService
	social    *UserService
	feed      *FeedService
	posts     *PostService
	chatSvc   *ChatService
	messages  *MessageService
	notifier  *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	users := &faultyUsers{UserRepository: store.Users(), fail: map[string]bool{}}
	chats := &faultyChats{ChatRepository: store.Chats()}
	images := storage.NewMemoryStore("http://images.test")

	summaries, err := cache.NewSummaryCache(users)
	if err != nil {
		t.Fatalf("NewSummaryCache: %v", err)
	}
	t.Cleanup(summaries.Close)

	tokens := NewTokenIssuer("test-secret")
	auth := NewAuthService(users, images, summaries, tokens)
	auth.bcryptCost = bcrypt.MinCost

	notifier := &recordingNotifier{}
	chatSvc := NewChatService(chats, users, summaries)
	chatSvc.SetNotifier(notifier)
	messages := NewMessageService(store.Messages(), chats)
	messages.SetNotifier(notifier)

	return &testEnv{
		store:     store,
		users:     users,
		chats:     chats,
		images:    images,
		summaries: summaries,
		tokens:    tokens,
		auth:      auth,
		social:    NewUserService(users, store.Posts()),
		feed:      NewFeedService(users, store.Posts(), summaries, 50),
		posts:     NewPostService(store.Posts(), users, images, summaries),
		chatSvc:   chatSvc,
		messages:  messages,
		notifier:  notifier,
	}
}

func (e *testEnv) register(t *testing.T, username string) *domain.User {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    strings.ToLower(username) + "@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return res.User
}

func (e *testEnv) user(t *testing.T, id uuid.UUID) *domain.User {
	t.Helper()
	u, err := e.store.Users().GetByID(context.Background(), id)
	if err != nil || u == nil {
		t.Fatalf("loading user %s: %v", id, err)
	}
	return u
}

func pngUpload() *Upload {
	return &Upload{Reader: strings.NewReader("png"), Size: 3, ContentType: "image/png"}
}

package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// lastMessageLookup joins the chat's last message together with its sender.
var lastMessageLookup = bson.D{{Key: "$lookup", Value: bson.D{
	{Key: "from", Value: "messages"},
	{Key: "localField", Value: "last_message_id"},
	{Key: "foreignField", Value: "_id"},
	{Key: "as", Value: "last_message"},
	{Key: "pipeline", Value: bson.A{senderLookup}},
}}}

// chatPipeline matches chats most recently active first, keeps at most
// limit of them when limit > 0 and populates each last message.
func chatPipeline(match bson.D, limit int64) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "last_message_at", Value: -1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	return append(pipeline, lastMessageLookup)
}

type ChatRepo struct {
	coll *mongo.Collection
}

func NewChatRepo(db *mongo.Database) *ChatRepo {
	return &ChatRepo{coll: db.Collection("chats")}
}

func (r *ChatRepo) Create(ctx context.Context, chat *domain.Chat) error {
	_, err := r.coll.InsertOne(ctx, newChatDoc(chat))
	return err
}

func (r *ChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: idString(id)}})
}

func (r *ChatRepo) FindDirect(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error) {
	return r.findOne(ctx, bson.D{
		{Key: "is_group", Value: false},
		{Key: "users", Value: bson.D{
			{Key: "$all", Value: bson.A{idString(userA), idString(userB)}},
			{Key: "$size", Value: 2},
		}},
	})
}

func (r *ChatRepo) findOne(ctx context.Context, match bson.D) (*domain.Chat, error) {
	chats, err := r.find(ctx, chatPipeline(match, 1))
	if err != nil || len(chats) == 0 {
		return nil, err
	}
	return &chats[0], nil
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	return r.find(ctx, chatPipeline(bson.D{{Key: "users", Value: idString(userID)}}, 0))
}

func (r *ChatRepo) find(ctx context.Context, pipeline mongo.Pipeline) ([]domain.Chat, error) {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []chatDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	chats := make([]domain.Chat, 0, len(docs))
	for _, d := range docs {
		chats = append(chats, d.toDomain())
	}
	return chats, nil
}

func (r *ChatRepo) AddUser(ctx context.Context, chatID, userID uuid.UUID) error {
	update := bson.D{
		{Key: "$addToSet", Value: bson.D{{Key: "users", Value: idString(userID)}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
	}
	_, err := r.coll.UpdateByID(ctx, idString(chatID), update)
	return err
}

func (r *ChatRepo) SetLastMessage(ctx context.Context, chatID, messageID uuid.UUID, at time.Time) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "last_message_id", Value: idString(messageID)},
		{Key: "last_message_at", Value: at},
		{Key: "updated_at", Value: time.Now()},
	}}}
	_, err := r.coll.UpdateByID(ctx, idString(chatID), update)
	return err
}

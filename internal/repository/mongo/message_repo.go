package mongo

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// senderLookup joins the sender's id, username and email.
var senderLookup = bson.D{{Key: "$lookup", Value: bson.D{
	{Key: "from", Value: "users"},
	{Key: "localField", Value: "sender_id"},
	{Key: "foreignField", Value: "_id"},
	{Key: "as", Value: "sender"},
	{Key: "pipeline", Value: bson.A{
		bson.D{{Key: "$project", Value: bson.D{{Key: "username", Value: 1}, {Key: "email", Value: 1}}}},
	}},
}}}

type MessageRepo struct {
	coll *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) *MessageRepo {
	return &MessageRepo{coll: db.Collection("messages")}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	doc := messageDoc{
		ID:        idString(msg.ID),
		ChatID:    idString(msg.ChatID),
		SenderID:  idString(msg.SenderID),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	_, err := r.coll.InsertOne(ctx, doc)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	msgs, err := r.find(ctx, bson.D{{Key: "_id", Value: idString(id)}})
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return &msgs[0], nil
}

func (r *MessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]domain.Message, error) {
	return r.find(ctx, bson.D{{Key: "chat_id", Value: idString(chatID)}})
}

// find returns matching messages oldest first with senders populated.
func (r *MessageRepo) find(ctx context.Context, match bson.D) ([]domain.Message, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}}}},
		senderLookup,
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(docs))
	for _, d := range docs {
		msgs = append(msgs, d.toDomain())
	}
	return msgs, nil
}

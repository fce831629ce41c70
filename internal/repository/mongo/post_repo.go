package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type PostRepo struct {
	coll *mongo.Collection
}

func NewPostRepo(db *mongo.Database) *PostRepo {
	return &PostRepo{coll: db.Collection("posts")}
}

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	_, err := r.coll.InsertOne(ctx, newPostDoc(post))
	return err
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: idString(id)}})
}

func (r *PostRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Post, error) {
	return r.findOne(ctx, bson.D{
		{Key: "_id", Value: idString(id)},
		{Key: "owner_id", Value: idString(ownerID)},
	})
}

func (r *PostRepo) findOne(ctx context.Context, filter bson.D) (*domain.Post, error) {
	var doc postDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := doc.toDomain()
	return &p, nil
}

func (r *PostRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Post, error) {
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: idStrings(ids)}}}})
	if err != nil {
		return nil, err
	}
	return decodePosts(ctx, cursor)
}

// rankedPipeline sorts by priority (1 when the owner is followed) and then
// by recency, entirely inside the aggregation.
func rankedPipeline(following []uuid.UUID, offset, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$addFields", Value: bson.D{{Key: "priority", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{"$owner_id", idStrings(following)}}}, 1, 0,
		}}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "priority", Value: -1}, {Key: "created_at", Value: -1}}}},
		{{Key: "$skip", Value: int64(offset)}},
		{{Key: "$limit", Value: int64(limit)}},
	}
}

func (r *PostRepo) ListRanked(ctx context.Context, following []uuid.UUID, offset, limit int) ([]domain.Post, error) {
	pipeline := rankedPipeline(following, offset, limit)
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return decodePosts(ctx, cursor)
}

func decodePosts(ctx context.Context, cursor *mongo.Cursor) ([]domain.Post, error) {
	var docs []postDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	posts := make([]domain.Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.toDomain())
	}
	return posts, nil
}

func (r *PostRepo) Update(ctx context.Context, id uuid.UUID, patch repository.PostPatch) error {
	set := bson.D{{Key: "updated_at", Value: time.Now()}}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Location != nil {
		set = append(set, bson.E{Key: "location", Value: *patch.Location})
	}
	if patch.Image != nil {
		set = append(set, bson.E{Key: "image", Value: imageDoc{URL: patch.Image.URL, AssetID: patch.Image.AssetID}})
	}
	_, err := r.coll.UpdateByID(ctx, idString(id), bson.D{{Key: "$set", Value: set}})
	return err
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: idString(id)}})
	return err
}

func (r *PostRepo) AddLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: idString(postID)},
		{Key: "likes", Value: bson.D{{Key: "$ne", Value: idString(userID)}}},
	}
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "likes", Value: idString(userID)}}}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *PostRepo) RemoveLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: idString(postID)},
		{Key: "likes", Value: idString(userID)},
	}
	update := bson.D{{Key: "$pull", Value: bson.D{{Key: "likes", Value: idString(userID)}}}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

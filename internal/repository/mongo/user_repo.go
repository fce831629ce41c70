package mongo

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var withoutPassword = bson.D{{Key: "password_hash", Value: 0}}

type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection("users")}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	_, err := r.coll.InsertOne(ctx, newUserDoc(user))
	return translateError(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	opts := options.FindOne().SetProjection(withoutPassword)
	return r.findOne(ctx, bson.D{{Key: "_id", Value: idString(id)}}, opts)
}

func (r *UserRepo) GetByEmailWithPassword(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.D, opts ...*options.FindOneOptions) (*domain.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, filter, opts...).Decode(&doc)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *UserRepo) ListSummaries(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error) {
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: idStrings(ids)}}}}
	return r.findSummaries(ctx, filter, options.Find())
}

func (r *UserRepo) SearchByUsernamePrefix(ctx context.Context, prefix string, exclude uuid.UUID, limit int) ([]domain.UserSummary, error) {
	pattern := "^" + regexp.QuoteMeta(strings.ToLower(prefix))
	filter := bson.D{
		{Key: "username_lower", Value: bson.D{{Key: "$regex", Value: pattern}}},
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: idString(exclude)}}},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetLimit(int64(limit))
	return r.findSummaries(ctx, filter, opts)
}

func (r *UserRepo) findSummaries(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]domain.UserSummary, error) {
	opts.SetProjection(bson.D{{Key: "username", Value: 1}, {Key: "avatar", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	summaries := make([]domain.UserSummary, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, d.toSummary())
	}
	return summaries, nil
}

func (r *UserRepo) Update(ctx context.Context, id uuid.UUID, patch repository.UserPatch) error {
	set := bson.D{{Key: "updated_at", Value: time.Now()}}
	if patch.Username != nil {
		set = append(set,
			bson.E{Key: "username", Value: *patch.Username},
			bson.E{Key: "username_lower", Value: strings.ToLower(*patch.Username)},
		)
	}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *patch.Email})
	}
	if patch.PasswordHash != nil {
		set = append(set, bson.E{Key: "password_hash", Value: *patch.PasswordHash})
	}
	if patch.Age != nil {
		set = append(set, bson.E{Key: "age", Value: *patch.Age})
	}
	if patch.Bio != nil {
		set = append(set, bson.E{Key: "bio", Value: *patch.Bio})
	}

	_, err := r.coll.UpdateByID(ctx, idString(id), bson.D{{Key: "$set", Value: set}})
	return translateError(err)
}

func (r *UserRepo) SetAvatar(ctx context.Context, id uuid.UUID, avatar *domain.Image) error {
	var update bson.D
	if avatar == nil {
		update = bson.D{{Key: "$unset", Value: bson.D{{Key: "avatar", Value: ""}}}}
	} else {
		update = bson.D{{Key: "$set", Value: bson.D{
			{Key: "avatar", Value: imageDoc{URL: avatar.URL, AssetID: avatar.AssetID}},
			{Key: "updated_at", Value: time.Now()},
		}}}
	}
	_, err := r.coll.UpdateByID(ctx, idString(id), update)
	return err
}

func (r *UserRepo) AddPost(ctx context.Context, userID, postID uuid.UUID) error {
	return r.addToSet(ctx, userID, "posts", postID)
}

func (r *UserRepo) RemovePost(ctx context.Context, userID, postID uuid.UUID) error {
	return r.pull(ctx, userID, "posts", postID)
}

func (r *UserRepo) AddFollowing(ctx context.Context, userID, targetID uuid.UUID) error {
	return r.addToSet(ctx, userID, "following", targetID)
}

func (r *UserRepo) RemoveFollowing(ctx context.Context, userID, targetID uuid.UUID) error {
	return r.pull(ctx, userID, "following", targetID)
}

func (r *UserRepo) AddFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	return r.addToSet(ctx, userID, "followers", followerID)
}

func (r *UserRepo) RemoveFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	return r.pull(ctx, userID, "followers", followerID)
}

func (r *UserRepo) addToSet(ctx context.Context, userID uuid.UUID, field string, value uuid.UUID) error {
	update := bson.D{{Key: "$addToSet", Value: bson.D{{Key: field, Value: idString(value)}}}}
	_, err := r.coll.UpdateByID(ctx, idString(userID), update)
	return err
}

func (r *UserRepo) pull(ctx context.Context, userID uuid.UUID, field string, value uuid.UUID) error {
	update := bson.D{{Key: "$pull", Value: bson.D{{Key: field, Value: idString(value)}}}}
	_, err := r.coll.UpdateByID(ctx, idString(userID), update)
	return err
}

func (r *UserRepo) ListFollowEdges(ctx context.Context) ([]repository.FollowEdges, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "followers", Value: 1}, {Key: "following", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	edges := make([]repository.FollowEdges, 0, len(docs))
	for _, d := range docs {
		edges = append(edges, repository.FollowEdges{
			UserID:    parseID(d.ID),
			Followers: parseIDs(d.Followers),
			Following: parseIDs(d.Following),
		})
	}
	return edges, nil
}

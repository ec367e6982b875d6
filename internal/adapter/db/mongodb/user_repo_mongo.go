package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"user-crud-service/internal/domain/user"
	apperrors "user-crud-service/pkg/errors"
)

// CollectionName is the collection holding user documents.
const CollectionName = "users"

// UserRepoMongo implements the Repository interface on a MongoDB collection.
type UserRepoMongo struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// NewUserRepoMongo creates a repository backed by the users collection of db.
func NewUserRepoMongo(db *mongo.Database, log *zap.Logger) *UserRepoMongo {
	return &UserRepoMongo{coll: db.Collection(CollectionName), log: log}
}

// userDocument is the stored BSON shape of a user.
type userDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *userDocument) toDomain() *user.User {
	return &user.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		CreatedAt: d.CreatedAt,
	}
}

// EnsureIndexes creates the indexes used by List ordering and filtering.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	})
	return err
}

func notFound(id string) error {
	return apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%s", id))
}

// objectID converts a canonical id; an unparsable id cannot match any document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

// Create inserts a new user document with a fresh ObjectId.
func (r *UserRepoMongo) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		r.log.Error("failed to insert user document", zap.Error(err), zap.String("email", u.Email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in mongo", zap.String("id", doc.ID.Hex()))
	return doc.toDomain(), nil
}

// GetByID fetches a single user document.
func (r *UserRepoMongo) GetByID(ctx context.Context, id string) (*user.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, notFound(id)
	}

	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Debug("user not found", zap.String("id", id))
			return nil, notFound(id)
		}
		r.log.Error("failed to get user document", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return doc.toDomain(), nil
}

// Update sets name and email and returns the document after the change.
func (r *UserRepoMongo) Update(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}
	oid, ok := objectID(u.ID)
	if !ok {
		return nil, notFound(u.ID)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"name": u.Name, "email": u.Email}}

	var doc userDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Debug("user to update not found", zap.String("id", u.ID))
			return nil, notFound(u.ID)
		}
		r.log.Error("failed to update user document", zap.Error(err), zap.String("id", u.ID))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	r.log.Info("user updated in mongo", zap.String("id", u.ID))
	return doc.toDomain(), nil
}

// Delete removes a user document and returns its last state.
func (r *UserRepoMongo) Delete(ctx context.Context, id string) (*user.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, notFound(id)
	}

	var doc userDocument
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Debug("user to delete not found", zap.String("id", id))
			return nil, notFound(id)
		}
		r.log.Error("failed to delete user document", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	r.log.Info("user deleted in mongo", zap.String("id", id))
	return doc.toDomain(), nil
}

// DeleteAll empties the collection.
func (r *UserRepoMongo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		r.log.Error("failed to delete all user documents", zap.Error(err))
		return 0, fmt.Errorf("failed to delete all users: %w", err)
	}

	r.log.Info("all users deleted in mongo", zap.Int64("count", res.DeletedCount))
	return res.DeletedCount, nil
}

// List returns users matching filter in insertion order.
func (r *UserRepoMongo) List(ctx context.Context, filter user.Filter) ([]user.User, error) {
	query := bson.M{}
	if filter.Name != "" {
		query["name"] = filter.Name
	}
	if filter.Email != "" {
		query["email"] = filter.Email
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		r.log.Error("failed to list user documents", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		r.log.Error("failed to decode user documents", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(docs))
	for i := range docs {
		users[i] = *docs[i].toDomain()
	}

	return users, nil
}

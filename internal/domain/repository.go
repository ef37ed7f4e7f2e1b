package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	UsersCollection   = "users"
	DrinksCollection  = "drinks"
	ReviewsCollection = "reviews"
)

// DocumentStore is a key-addressed collection store with single-document
// atomic updates and no multi-document transactions. Absent documents are
// reported as a nil bson.M with a nil error.
type DocumentStore interface {
	FindOne(ctx context.Context, collection string, filter bson.M) (bson.M, error)
	Find(ctx context.Context, collection string, filter bson.M) ([]bson.M, error)
	InsertOne(ctx context.Context, collection string, doc bson.M) (primitive.ObjectID, error)
	// UpdateOne applies update ($set, $inc, $addToSet, $pull, $pullAll) to the
	// first match and returns the updated document.
	UpdateOne(ctx context.Context, collection string, filter, update bson.M) (bson.M, error)
	// DeleteOne removes the first match and returns the removed document.
	DeleteOne(ctx context.Context, collection string, filter bson.M) (bson.M, error)
	DeleteMany(ctx context.Context, collection string, filter bson.M) (int64, error)
	Sample(ctx context.Context, collection string, n int) ([]bson.M, error)
}

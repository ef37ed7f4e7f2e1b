package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/codec"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	zap "go.uber.org/zap"
)

// Store implements domain.DocumentStore on a MongoDB database.
type Store struct {
	db     *mongo.Database
	logger *logger.Logger
}

var _ domain.DocumentStore = (*Store)(nil)

// NewStore wraps db and ensures the unique business-key indexes exist.
func NewStore(db *mongo.Database, log *logger.Logger) (*Store, error) {
	s := &Store{
		db:     db,
		logger: log.Named("MongoStore"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for collection, keys := range codec.UniqueKeys {
		indexes := make([]mongo.IndexModel, 0, len(keys))
		for _, fields := range keys {
			spec := bson.D{}
			for _, f := range fields {
				spec = append(spec, bson.E{Key: f, Value: 1})
			}
			indexes = append(indexes, mongo.IndexModel{Keys: spec, Options: options.Index().SetUnique(true)})
		}
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			s.logger.Error("Failed to create indexes", zap.String("collection", collection), zap.Error(err))
			return nil, fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}
	s.logger.Info("Successfully ensured indexes", zap.Int("collections", len(codec.UniqueKeys)))
	return s, nil
}

// Connect dials uri, verifies the connection with a ping and returns the client.
func Connect(ctx context.Context, uri string, timeout time.Duration, log *logger.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		log.Error("Failed to connect to MongoDB", zap.Error(err))
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Error("Failed to ping MongoDB", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Info("Successfully connected to MongoDB")
	return client, nil
}

func (s *Store) FindOne(ctx context.Context, collection string, filter bson.M) (bson.M, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		s.logger.Error("FindOne failed", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc, nil
}

func (s *Store) Find(ctx context.Context, collection string, filter bson.M) ([]bson.M, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		s.logger.Error("Find failed", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		s.logger.Error("Failed to decode documents", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}
	return docs, nil
}

func (s *Store) InsertOne(ctx context.Context, collection string, doc bson.M) (primitive.ObjectID, error) {
	id, ok := codec.ToID(doc[codec.FieldID])
	if !ok {
		id = primitive.NewObjectID()
	}
	stored := make(bson.M, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored[codec.FieldID] = id

	if _, err := s.db.Collection(collection).InsertOne(ctx, stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.logger.Warn("Duplicate key on insert", zap.String("collection", collection), zap.Error(err))
			return primitive.NilObjectID, fmt.Errorf("%w: %v", domain.ErrAlreadyExists, err)
		}
		s.logger.Error("Failed to insert document", zap.String("collection", collection), zap.Error(err))
		return primitive.NilObjectID, fmt.Errorf("db insert failed: %w", err)
	}
	s.logger.Debug("Document inserted", zap.String("collection", collection), zap.String("id", id.Hex()))
	return id, nil
}

func (s *Store) UpdateOne(ctx context.Context, collection string, filter, update bson.M) (bson.M, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bson.M
	err := s.db.Collection(collection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrAlreadyExists, err)
		}
		s.logger.Error("FindOneAndUpdate failed", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("db update failed: %w", err)
	}
	return doc, nil
}

func (s *Store) DeleteOne(ctx context.Context, collection string, filter bson.M) (bson.M, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOneAndDelete(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		s.logger.Error("FindOneAndDelete failed", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("db delete failed: %w", err)
	}
	return doc, nil
}

func (s *Store) DeleteMany(ctx context.Context, collection string, filter bson.M) (int64, error) {
	result, err := s.db.Collection(collection).DeleteMany(ctx, filter)
	if err != nil {
		s.logger.Error("DeleteMany failed", zap.String("collection", collection), zap.Error(err))
		return 0, fmt.Errorf("db delete many failed: %w", err)
	}
	return result.DeletedCount, nil
}

// Sample draws up to n distinct random documents with the $sample stage.
// $sample may repeat a document when it falls back to a random cursor, so
// repeats are dropped by _id and the result can be shorter than n.
func (s *Store) Sample(ctx context.Context, collection string, n int) ([]bson.M, error) {
	if n <= 0 {
		return nil, domain.ErrInvalidSampleSize
	}
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: n}}}},
	}
	cursor, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		s.logger.Error("Sample aggregation failed", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("db aggregate failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor all for aggregate failed: %w", err)
	}
	return distinctByID(docs), nil
}

func distinctByID(docs []bson.M) []bson.M {
	seen := make(map[primitive.ObjectID]struct{}, len(docs))
	out := docs[:0]
	for _, doc := range docs {
		if id, ok := codec.ToID(doc[codec.FieldID]); ok {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		out = append(out, doc)
	}
	return out
}

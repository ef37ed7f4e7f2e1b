// Package memory provides an in-process domain.DocumentStore. It backs the
// unit tests and STORE_DRIVER=memory; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/codec"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store keeps every collection as an insertion-ordered slice of documents.
// Each method holds the lock for its whole duration, which makes every
// single-document update atomic.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]bson.M
	uniqueKeys  map[string][][]string
	rng         *rand.Rand
	logger      *logger.Logger
}

var _ domain.DocumentStore = (*Store)(nil)

// NewStore creates an empty store enforcing codec.UniqueKeys.
func NewStore(log *logger.Logger) *Store {
	return &Store{
		collections: make(map[string][]bson.M),
		uniqueKeys:  codec.UniqueKeys,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:      log.Named("MemoryStore"),
	}
}

// normalize re-encodes doc through BSON so stored values have the same shapes
// the Mongo driver produces. It also yields a deep copy.
func normalize(doc bson.M) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("memory store: encode document: %w", err)
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("memory store: decode document: %w", err)
	}
	return out, nil
}

func clone(doc bson.M) bson.M {
	out, err := normalize(doc)
	if err != nil {
		// stored documents were normalized on the way in
		panic(err)
	}
	return out
}

func (s *Store) FindOne(_ context.Context, collection string, filter bson.M) (bson.M, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.collections[collection] {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			return clone(doc), nil
		}
	}
	return nil, nil
}

func (s *Store) Find(_ context.Context, collection string, filter bson.M) ([]bson.M, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []bson.M
	for _, doc := range s.collections[collection] {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, clone(doc))
		}
	}
	return out, nil
}

func (s *Store) InsertOne(_ context.Context, collection string, doc bson.M) (primitive.ObjectID, error) {
	stored, err := normalize(doc)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := codec.ToID(stored[codec.FieldID])
	if !ok {
		id = primitive.NewObjectID()
	}
	stored[codec.FieldID] = id

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(collection, stored, -1); err != nil {
		return primitive.NilObjectID, err
	}
	s.collections[collection] = append(s.collections[collection], stored)
	s.logger.Debug("Document inserted", zap.String("collection", collection), zap.String("id", id.Hex()))
	return id, nil
}

func (s *Store) UpdateOne(_ context.Context, collection string, filter, update bson.M) (bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, doc := range docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		next := clone(doc)
		if err := applyUpdate(next, update); err != nil {
			return nil, err
		}
		if next, err = normalize(next); err != nil {
			return nil, err
		}
		if err := s.checkUnique(collection, next, i); err != nil {
			return nil, err
		}
		docs[i] = next
		return clone(next), nil
	}
	return nil, nil
}

func (s *Store) DeleteOne(_ context.Context, collection string, filter bson.M) (bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, doc := range docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return doc, nil
		}
	}
	return nil, nil
}

func (s *Store) DeleteMany(_ context.Context, collection string, filter bson.M) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	kept := make([]bson.M, 0, len(docs))
	var deleted int64
	for _, doc := range docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	s.collections[collection] = kept
	return deleted, nil
}

// Sample returns up to n distinct documents in random order.
func (s *Store) Sample(_ context.Context, collection string, n int) ([]bson.M, error) {
	if n <= 0 {
		return nil, domain.ErrInvalidSampleSize
	}

	s.mu.Lock() // rng is not safe for concurrent use
	defer s.mu.Unlock()

	docs := s.collections[collection]
	if n > len(docs) {
		n = len(docs)
	}
	out := make([]bson.M, 0, n)
	for _, i := range s.rng.Perm(len(docs))[:n] {
		out = append(out, clone(docs[i]))
	}
	return out, nil
}

// checkUnique reports a collision of doc with any document other than the one
// at index self.
func (s *Store) checkUnique(collection string, doc bson.M, self int) error {
	docs := s.collections[collection]
	for i, other := range docs {
		if i == self {
			continue
		}
		if equalValues(other[codec.FieldID], doc[codec.FieldID]) {
			return fmt.Errorf("%w: duplicate _id in %s", domain.ErrAlreadyExists, collection)
		}
		for _, key := range s.uniqueKeys[collection] {
			if sameKey(other, doc, key) {
				return fmt.Errorf("%w: duplicate %v in %s", domain.ErrAlreadyExists, key, collection)
			}
		}
	}
	return nil
}

func sameKey(a, b bson.M, fields []string) bool {
	for _, f := range fields {
		if !equalValues(a[f], b[f]) {
			return false
		}
	}
	return true
}

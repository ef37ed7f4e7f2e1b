package domain

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDSet is an unordered set of opaque identifiers.
type IDSet map[primitive.ObjectID]struct{}

// NewIDSet builds a set from ids, dropping duplicates.
func NewIDSet(ids ...primitive.ObjectID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into the set.
func (s IDSet) Add(id primitive.ObjectID) {
	s[id] = struct{}{}
}

// Remove deletes id and reports whether it was present.
func (s IDSet) Remove(id primitive.ObjectID) bool {
	if _, ok := s[id]; !ok {
		return false
	}
	delete(s, id)
	return true
}

// Has reports whether id is a member.
func (s IDSet) Has(id primitive.ObjectID) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the members ordered by their hex form.
func (s IDSet) Slice() []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}

// Hex returns the members as hex strings, ordered.
func (s IDSet) Hex() []string {
	ids := s.Slice()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

// ParseID converts the string form of an identifier into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidIdentifier
	}
	return id, nil
}

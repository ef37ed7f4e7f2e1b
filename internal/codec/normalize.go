package codec

import (
	"fmt"
	"math"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func malformed(field, format string, args ...interface{}) error {
	return fmt.Errorf("%w: field %q: %s", domain.ErrMalformedDocument, field, fmt.Sprintf(format, args...))
}

// ToID accepts an ObjectID or its hex string form.
func ToID(v interface{}) (primitive.ObjectID, bool) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id, !id.IsZero()
	case string:
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return primitive.NilObjectID, false
		}
		return oid, true
	}
	return primitive.NilObjectID, false
}

func toSlice(v interface{}) ([]interface{}, bool) {
	switch s := v.(type) {
	case primitive.A:
		return []interface{}(s), true
	case []interface{}:
		return s, true
	case []primitive.ObjectID:
		out := make([]interface{}, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []string:
		out := make([]interface{}, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	}
	return nil, false
}

func idList(ids domain.IDSet) bson.A {
	out := bson.A{}
	for _, id := range ids.Slice() {
		out = append(out, id)
	}
	return out
}

func requiredID(doc bson.M, field string) (primitive.ObjectID, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return primitive.NilObjectID, malformed(field, "missing")
	}
	id, ok := ToID(raw)
	if !ok {
		return primitive.NilObjectID, malformed(field, "not an identifier (%T)", raw)
	}
	return id, nil
}

// idSet tolerates a missing field and collapses duplicates.
func idSet(doc bson.M, field string) (domain.IDSet, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return domain.NewIDSet(), nil
	}
	items, ok := toSlice(raw)
	if !ok {
		return nil, malformed(field, "not an array (%T)", raw)
	}
	set := make(domain.IDSet, len(items))
	for i, item := range items {
		id, ok := ToID(item)
		if !ok {
			return nil, malformed(field, "element %d is not an identifier (%T)", i, item)
		}
		set.Add(id)
	}
	return set, nil
}

func requiredString(doc bson.M, field string) (string, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return "", malformed(field, "missing")
	}
	s, ok := raw.(string)
	if !ok {
		return "", malformed(field, "not a string (%T)", raw)
	}
	return s, nil
}

func optionalString(doc bson.M, field string) (string, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", malformed(field, "not a string (%T)", raw)
	}
	return s, nil
}

// ToInt accepts any BSON integer width and integral doubles.
func ToInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// ToFloat accepts any BSON numeric type.
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func intField(doc bson.M, field string, required bool, fallback int) (int, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		if required {
			return 0, malformed(field, "missing")
		}
		return fallback, nil
	}
	n, ok := ToInt(raw)
	if !ok {
		return 0, malformed(field, "not an integer (%T)", raw)
	}
	return n, nil
}

func floatField(doc bson.M, field string, fallback float64) (float64, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return fallback, nil
	}
	f, ok := ToFloat(raw)
	if !ok {
		return 0, malformed(field, "not a number (%T)", raw)
	}
	return f, nil
}

func timeField(doc bson.M, field string) (time.Time, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return time.Time{}, nil
	}
	switch t := raw.(type) {
	case primitive.DateTime:
		return t.Time().UTC(), nil
	case time.Time:
		return t.UTC(), nil
	}
	return time.Time{}, malformed(field, "not a date (%T)", raw)
}

func ingredientsField(doc bson.M, field string) ([]domain.Ingredient, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return []domain.Ingredient{}, nil
	}
	switch typed := raw.(type) {
	case []domain.Ingredient:
		return typed, nil
	case [][]string:
		out := make([]domain.Ingredient, len(typed))
		for i := range typed {
			out[i] = domain.Ingredient(typed[i])
		}
		return out, nil
	}
	rows, ok := toSlice(raw)
	if !ok {
		return nil, malformed(field, "not an array (%T)", raw)
	}
	out := make([]domain.Ingredient, 0, len(rows))
	for i, row := range rows {
		parts, ok := toSlice(row)
		if !ok {
			if ing, isIng := row.(domain.Ingredient); isIng {
				out = append(out, ing)
				continue
			}
			return nil, malformed(field, "row %d is not an array (%T)", i, row)
		}
		ing := make(domain.Ingredient, len(parts))
		for j, p := range parts {
			s, ok := p.(string)
			if !ok {
				return nil, malformed(field, "row %d item %d is not a string (%T)", i, j, p)
			}
			ing[j] = s
		}
		out = append(out, ing)
	}
	return out, nil
}

func ingredientList(ings []domain.Ingredient) bson.A {
	out := make(bson.A, len(ings))
	for i, ing := range ings {
		row := make(bson.A, len(ing))
		for j, s := range ing {
			row[j] = s
		}
		out[i] = row
	}
	return out
}

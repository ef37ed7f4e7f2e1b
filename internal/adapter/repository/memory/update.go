package memory

import (
	"fmt"
	"math"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/codec"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// applyUpdate mutates doc in place with $set, $inc, $addToSet, $pull and
// $pullAll. Replacement documents are rejected.
func applyUpdate(doc bson.M, update bson.M) error {
	if len(update) == 0 {
		return fmt.Errorf("memory store: empty update document")
	}
	for op, raw := range update {
		fields, ok := asFieldMap(raw)
		if !ok {
			return fmt.Errorf("memory store: %s needs a document, got %T", op, raw)
		}
		for field, arg := range fields {
			var err error
			switch op {
			case "$set":
				doc[field] = arg
			case "$inc":
				err = inc(doc, field, arg)
			case "$addToSet":
				err = addToSet(doc, field, arg)
			case "$pull":
				err = pull(doc, field, arg)
			case "$pullAll":
				items, isList := asList(arg)
				if !isList {
					err = fmt.Errorf("$pullAll needs an array, got %T", arg)
					break
				}
				err = removeWhere(doc, field, func(v interface{}) bool { return inList(items, v) })
			default:
				err = fmt.Errorf("unsupported update operator %s", op)
			}
			if err != nil {
				return fmt.Errorf("memory store: field %q: %w", field, err)
			}
		}
	}
	return nil
}

func asFieldMap(v interface{}) (bson.M, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]interface{}:
		return bson.M(m), true
	}
	return nil, false
}

func inc(doc bson.M, field string, arg interface{}) error {
	cur, present := doc[field]
	if !present || cur == nil {
		cur = int32(0)
	}
	if isIntegral(cur) && isIntegral(arg) {
		a, _ := codec.ToInt(cur)
		b, _ := codec.ToInt(arg)
		sum := int64(a) + int64(b)
		if sum >= math.MinInt32 && sum <= math.MaxInt32 {
			doc[field] = int32(sum)
		} else {
			doc[field] = sum
		}
		return nil
	}
	a, ok := codec.ToFloat(cur)
	if !ok {
		return fmt.Errorf("$inc on non-numeric value %T", cur)
	}
	b, ok := codec.ToFloat(arg)
	if !ok {
		return fmt.Errorf("$inc needs a number, got %T", arg)
	}
	doc[field] = a + b
	return nil
}

func isIntegral(v interface{}) bool {
	switch v.(type) {
	case int, int32, int64:
		return true
	}
	return false
}

func listField(doc bson.M, field string) (primitive.A, error) {
	raw, present := doc[field]
	if !present || raw == nil {
		return primitive.A{}, nil
	}
	items, ok := asList(raw)
	if !ok {
		return nil, fmt.Errorf("cannot apply array operator to %T", raw)
	}
	return primitive.A(items), nil
}

func addToSet(doc bson.M, field string, arg interface{}) error {
	items, err := listField(doc, field)
	if err != nil {
		return err
	}
	values := []interface{}{arg}
	if ops, ok := operators(arg); ok {
		each, hasEach := ops["$each"]
		if !hasEach || len(ops) != 1 {
			return fmt.Errorf("$addToSet only supports the $each modifier")
		}
		if values, ok = asList(each); !ok {
			return fmt.Errorf("$each needs an array, got %T", each)
		}
	}
	for _, v := range values {
		if !inList(items, v) {
			items = append(items, v)
		}
	}
	doc[field] = items
	return nil
}

func pull(doc bson.M, field string, arg interface{}) error {
	if ops, ok := operators(arg); ok {
		in, hasIn := ops["$in"]
		if !hasIn || len(ops) != 1 {
			return fmt.Errorf("$pull only supports the $in condition")
		}
		candidates, isList := asList(in)
		if !isList {
			return fmt.Errorf("$in needs an array, got %T", in)
		}
		return removeWhere(doc, field, func(v interface{}) bool { return inList(candidates, v) })
	}
	return removeWhere(doc, field, func(v interface{}) bool { return equalValues(v, arg) })
}

func removeWhere(doc bson.M, field string, drop func(interface{}) bool) error {
	if _, present := doc[field]; !present {
		return nil
	}
	items, err := listField(doc, field)
	if err != nil {
		return err
	}
	kept := primitive.A{}
	for _, v := range items {
		if !drop(v) {
			kept = append(kept, v)
		}
	}
	doc[field] = kept
	return nil
}

func inList(items []interface{}, v interface{}) bool {
	for _, item := range items {
		if equalValues(item, v) {
			return true
		}
	}
	return false
}

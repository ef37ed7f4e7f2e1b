package memory

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/codec"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// matches evaluates the subset of the Mongo query language the service uses:
// field equality (an array field matches any of its elements) and the
// operators $ne, $in, $nin, $size and $exists.
func matches(doc bson.M, filter bson.M) (bool, error) {
	for field, cond := range filter {
		value, present := doc[field]

		ops, isOps := operators(cond)
		if !isOps {
			if !contains(value, present, cond) {
				return false, nil
			}
			continue
		}

		for op, arg := range ops {
			ok, err := evalOperator(op, value, present, arg)
			if err != nil {
				return false, fmt.Errorf("memory store: field %q: %w", field, err)
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

// operators returns cond as an operator document when every key starts with $.
func operators(cond interface{}) (bson.M, bool) {
	var m bson.M
	switch c := cond.(type) {
	case bson.M:
		m = c
	case map[string]interface{}:
		m = bson.M(c)
	default:
		return nil, false
	}
	if len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func evalOperator(op string, value interface{}, present bool, arg interface{}) (bool, error) {
	switch op {
	case "$ne":
		return !contains(value, present, arg), nil
	case "$in", "$nin":
		candidates, ok := asList(arg)
		if !ok {
			return false, fmt.Errorf("%s needs an array, got %T", op, arg)
		}
		found := false
		for _, c := range candidates {
			if contains(value, present, c) {
				found = true
				break
			}
		}
		if op == "$in" {
			return found, nil
		}
		return !found, nil
	case "$size":
		want, ok := codec.ToInt(arg)
		if !ok {
			return false, fmt.Errorf("$size needs an integer, got %T", arg)
		}
		items, isList := asList(value)
		return present && isList && len(items) == want, nil
	case "$exists":
		want, ok := arg.(bool)
		if !ok {
			return false, fmt.Errorf("$exists needs a bool, got %T", arg)
		}
		return present == want, nil
	}
	return false, fmt.Errorf("unsupported query operator %s", op)
}

// contains implements Mongo equality: a scalar matches itself, an array
// matches any element or an equal array, and nil matches a missing field.
func contains(value interface{}, present bool, want interface{}) bool {
	if !present {
		return want == nil
	}
	if items, ok := asList(value); ok {
		if _, wantList := asList(want); !wantList {
			for _, item := range items {
				if equalValues(item, want) {
					return true
				}
			}
			return false
		}
	}
	return equalValues(value, want)
}

func asList(v interface{}) ([]interface{}, bool) {
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

// equalValues compares numbers by value regardless of width and arrays
// element-wise.
func equalValues(a, b interface{}) bool {
	if fa, ok := codec.ToFloat(a); ok {
		fb, ok := codec.ToFloat(b)
		return ok && fa == fb
	}
	la, aList := asList(a)
	lb, bList := asList(b)
	if aList || bList {
		if !aList || !bList || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !equalValues(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

package usecase

import (
	"fmt"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/codec"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
)

type fieldRule int

const (
	ruleString fieldRule = iota
	ruleIngredients
	ruleRating
	ruleReferenceSet
	ruleLocked
)

var (
	userFieldRules = map[string]fieldRule{
		codec.FieldFirstName:   ruleString,
		codec.FieldLastName:    ruleString,
		codec.FieldPassword:    ruleString,
		codec.FieldID:          ruleLocked,
		codec.FieldEmail:       ruleLocked,
		codec.FieldDrinkIDs:    ruleReferenceSet,
		codec.FieldReviewIDs:   ruleReferenceSet,
		codec.FieldFavoriteIDs: ruleReferenceSet,
	}
	drinkFieldRules = map[string]fieldRule{
		codec.FieldName:        ruleString,
		codec.FieldIngredients: ruleIngredients,
		codec.FieldImage:       ruleString,
		codec.FieldID:          ruleLocked,
		codec.FieldUserEmail:   ruleLocked,
		codec.FieldRating:      ruleLocked,
		codec.FieldSum:         ruleLocked,
		codec.FieldReviewIDs:   ruleReferenceSet,
	}
	reviewFieldRules = map[string]fieldRule{
		codec.FieldComment:   ruleString,
		codec.FieldRating:    ruleRating,
		codec.FieldID:        ruleLocked,
		codec.FieldUserEmail: ruleLocked,
		codec.FieldDrinkID:   ruleLocked,
		codec.FieldDate:      ruleLocked,
	}
)

// sanitizeFields validates a caller-supplied field map against rules and
// returns the normalized $set payload. Unknown fields are rejected.
func sanitizeFields(rules map[string]fieldRule, fields map[string]interface{}) (bson.M, error) {
	set := make(bson.M, len(fields))
	for name, value := range fields {
		rule, known := rules[name]
		if !known {
			return nil, fmt.Errorf("%w: %q", domain.ErrDisallowedField, name)
		}
		switch rule {
		case ruleLocked:
			return nil, fmt.Errorf("%w: %q", domain.ErrDisallowedField, name)
		case ruleReferenceSet:
			return nil, fmt.Errorf("%w: %q", domain.ErrUseAttachDetach, name)
		case ruleString:
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %q must be a string", domain.ErrInvalidArgument, name)
			}
			set[name] = s
		case ruleIngredients:
			ings, err := codec.ParseIngredients(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %q must be a list of string lists", domain.ErrInvalidArgument, name)
			}
			set[name] = ings
		case ruleRating:
			r, ok := codec.ToInt(value)
			if !ok {
				return nil, fmt.Errorf("%w: %q must be an integer", domain.ErrInvalidArgument, name)
			}
			if err := domain.ValidateRating(r); err != nil {
				return nil, err
			}
			set[name] = r
		}
	}
	return set, nil
}

package codec

import (
	"fmt"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
)

// Document field names shared by every collection.
const (
	FieldID = "_id"

	// users
	FieldFirstName   = "fname"
	FieldLastName    = "lname"
	FieldEmail       = "email"
	FieldPassword    = "pw"
	FieldDrinkIDs    = "drink_ids"
	FieldReviewIDs   = "review_ids"
	FieldFavoriteIDs = "favorite_ids"

	// drinks (review_ids is shared with users)
	FieldUserEmail   = "user_email"
	FieldName        = "name"
	FieldIngredients = "ingredients"
	FieldImage       = "image"
	FieldRating      = "rating"
	FieldSum         = "sum"

	// reviews (user_email and rating are shared with drinks)
	FieldDrinkID = "drink_id"
	FieldComment = "comment"
	FieldDate    = "date"
)

// UniqueKeys lists the business keys each collection enforces. Creation is
// idempotent on these keys.
var UniqueKeys = map[string][][]string{
	domain.UsersCollection:   {{FieldEmail}},
	domain.DrinksCollection:  {{FieldUserEmail, FieldName}},
	domain.ReviewsCollection: {{FieldUserEmail, FieldDrinkID}},
}

// UserReferenceField maps a reference kind to the user document field holding it.
func UserReferenceField(kind domain.ReferenceKind) (string, error) {
	switch kind {
	case domain.KindDrink:
		return FieldDrinkIDs, nil
	case domain.KindFavorite:
		return FieldFavoriteIDs, nil
	case domain.KindReview:
		return FieldReviewIDs, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidKind, string(kind))
}

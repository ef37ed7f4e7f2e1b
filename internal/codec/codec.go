// Package codec translates between persisted documents and domain entities.
// Documents decoded by the Mongo driver and documents built by hand are both
// accepted: identifiers may be ObjectIDs or hex strings, arrays may be
// primitive.A or typed slices, numbers may be any BSON width.
package codec

import (
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserToDocument encodes u. The _id key is omitted for unsaved users.
func UserToDocument(u *domain.User) bson.M {
	doc := bson.M{
		FieldFirstName:   u.FirstName,
		FieldLastName:    u.LastName,
		FieldEmail:       u.Email,
		FieldPassword:    u.Password,
		FieldDrinkIDs:    idList(u.DrinkIDs),
		FieldReviewIDs:   idList(u.ReviewIDs),
		FieldFavoriteIDs: idList(u.FavoriteIDs),
	}
	if !u.ID.IsZero() {
		doc[FieldID] = u.ID
	}
	return doc
}

func UserFromDocument(doc bson.M) (*domain.User, error) {
	var (
		u   domain.User
		err error
	)
	if u.ID, err = requiredID(doc, FieldID); err != nil {
		return nil, err
	}
	if u.Email, err = requiredString(doc, FieldEmail); err != nil {
		return nil, err
	}
	if u.FirstName, err = optionalString(doc, FieldFirstName); err != nil {
		return nil, err
	}
	if u.LastName, err = optionalString(doc, FieldLastName); err != nil {
		return nil, err
	}
	if u.Password, err = optionalString(doc, FieldPassword); err != nil {
		return nil, err
	}
	if u.DrinkIDs, err = idSet(doc, FieldDrinkIDs); err != nil {
		return nil, err
	}
	if u.ReviewIDs, err = idSet(doc, FieldReviewIDs); err != nil {
		return nil, err
	}
	if u.FavoriteIDs, err = idSet(doc, FieldFavoriteIDs); err != nil {
		return nil, err
	}
	return &u, nil
}

// DrinkToDocument encodes d. The _id key is omitted for unsaved drinks.
func DrinkToDocument(d *domain.Drink) bson.M {
	doc := bson.M{
		FieldUserEmail:   d.CreatorEmail,
		FieldName:        d.Name,
		FieldIngredients: ingredientList(d.Ingredients),
		FieldImage:       d.Image,
		FieldReviewIDs:   idList(d.ReviewIDs),
		FieldRating:      d.Rating,
		FieldSum:         d.Sum,
	}
	if !d.ID.IsZero() {
		doc[FieldID] = d.ID
	}
	return doc
}

func DrinkFromDocument(doc bson.M) (*domain.Drink, error) {
	var (
		d   domain.Drink
		err error
	)
	if d.ID, err = requiredID(doc, FieldID); err != nil {
		return nil, err
	}
	if d.CreatorEmail, err = requiredString(doc, FieldUserEmail); err != nil {
		return nil, err
	}
	if d.Name, err = requiredString(doc, FieldName); err != nil {
		return nil, err
	}
	if d.Ingredients, err = ingredientsField(doc, FieldIngredients); err != nil {
		return nil, err
	}
	if d.Image, err = optionalString(doc, FieldImage); err != nil {
		return nil, err
	}
	if d.ReviewIDs, err = idSet(doc, FieldReviewIDs); err != nil {
		return nil, err
	}
	if d.Rating, err = floatField(doc, FieldRating, domain.UnratedSentinel); err != nil {
		return nil, err
	}
	if d.Sum, err = intField(doc, FieldSum, false, 0); err != nil {
		return nil, err
	}
	return &d, nil
}

// ReviewToDocument encodes r. The _id key is omitted for unsaved reviews.
func ReviewToDocument(r *domain.Review) bson.M {
	doc := bson.M{
		FieldUserEmail: r.AuthorEmail,
		FieldDrinkID:   r.DrinkID,
		FieldComment:   r.Comment,
		FieldRating:    r.Rating,
		FieldDate:      primitive.NewDateTimeFromTime(r.CreatedAt),
	}
	if !r.ID.IsZero() {
		doc[FieldID] = r.ID
	}
	return doc
}

func ReviewFromDocument(doc bson.M) (*domain.Review, error) {
	var (
		r   domain.Review
		err error
	)
	if r.ID, err = requiredID(doc, FieldID); err != nil {
		return nil, err
	}
	if r.AuthorEmail, err = requiredString(doc, FieldUserEmail); err != nil {
		return nil, err
	}
	if r.DrinkID, err = requiredID(doc, FieldDrinkID); err != nil {
		return nil, err
	}
	if r.Comment, err = optionalString(doc, FieldComment); err != nil {
		return nil, err
	}
	if r.Rating, err = intField(doc, FieldRating, true, domain.UnsetRating); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = timeField(doc, FieldDate); err != nil {
		return nil, err
	}
	return &r, nil
}

// ParseIngredients decodes a recipe supplied as any array-of-string-arrays shape.
func ParseIngredients(v interface{}) ([]domain.Ingredient, error) {
	return ingredientsField(bson.M{FieldIngredients: v}, FieldIngredients)
}

package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnratedSentinel is the rating of a drink with no reviews.
const UnratedSentinel = -1.0

// Ingredient is one line of a recipe, e.g. ["2 oz", "gin"].
type Ingredient []string

// Drink is a user-submitted recipe with an aggregate rating.
type Drink struct {
	ID           primitive.ObjectID
	CreatorEmail string // weak back-reference to the creating User
	Name         string
	Ingredients  []Ingredient
	Image        string // optional image URL
	ReviewIDs    IDSet
	// Rating is the displayed average, UnratedSentinel when ReviewIDs is empty.
	Rating float64
	// Sum is the running total of the ratings of every review in ReviewIDs.
	Sum int
}

// NewDrink creates a not-yet-persisted, unrated drink.
func NewDrink(creatorEmail, name string, ingredients []Ingredient) *Drink {
	return &Drink{
		CreatorEmail: creatorEmail,
		Name:         name,
		Ingredients:  ingredients,
		ReviewIDs:    NewIDSet(),
		Rating:       UnratedSentinel,
	}
}

// ReviewCount is the number of attached reviews.
func (d *Drink) ReviewCount() int {
	return len(d.ReviewIDs)
}

// AddReviewReference attaches id to the drink; adding it twice is a no-op.
func (d *Drink) AddReviewReference(id primitive.ObjectID) error {
	if id.IsZero() {
		return ErrInvalidIdentifier
	}
	if d.ReviewIDs == nil {
		d.ReviewIDs = NewIDSet()
	}
	d.ReviewIDs.Add(id)
	return nil
}

// RemoveReviewReference reports whether id was attached.
func (d *Drink) RemoveReviewReference(id primitive.ObjectID) (bool, error) {
	if id.IsZero() {
		return false, ErrInvalidIdentifier
	}
	if d.ReviewIDs == nil {
		return false, nil
	}
	return d.ReviewIDs.Remove(id), nil
}

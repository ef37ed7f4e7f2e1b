package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating   = 1
	MaxRating   = 5
	UnsetRating = -1
)

// Review is a user's rating and comment on a drink. At most one review exists
// per (author, drink) pair.
type Review struct {
	ID          primitive.ObjectID
	AuthorEmail string             // back-reference to the User
	DrinkID     primitive.ObjectID // back-reference to the Drink
	Comment     string
	Rating      int
	CreatedAt   time.Time
}

// NewReview creates a not-yet-persisted review.
func NewReview(authorEmail string, drinkID primitive.ObjectID, comment string, rating int) (*Review, error) {
	if drinkID.IsZero() {
		return nil, ErrInvalidIdentifier
	}
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	return &Review{
		AuthorEmail: authorEmail,
		DrinkID:     drinkID,
		Comment:     comment,
		Rating:      rating,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}, nil
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

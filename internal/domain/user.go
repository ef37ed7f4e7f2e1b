package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account. Email is the business key used for every lookup.
type User struct {
	ID          primitive.ObjectID
	FirstName   string
	LastName    string
	Email       string
	Password    string // bcrypt hash, never the plain password
	DrinkIDs    IDSet  // drinks created by this user
	ReviewIDs   IDSet  // reviews written by this user
	FavoriteIDs IDSet  // drinks favorited by this user
}

// NewUser creates a not-yet-persisted user with empty reference sets.
func NewUser(firstName, lastName, email, passwordHash string) *User {
	return &User{
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		Password:    passwordHash,
		DrinkIDs:    NewIDSet(),
		ReviewIDs:   NewIDSet(),
		FavoriteIDs: NewIDSet(),
	}
}

func (u *User) references(kind ReferenceKind) (IDSet, error) {
	var set *IDSet
	switch kind {
	case KindDrink:
		set = &u.DrinkIDs
	case KindFavorite:
		set = &u.FavoriteIDs
	case KindReview:
		set = &u.ReviewIDs
	default:
		return nil, ErrInvalidKind
	}
	if *set == nil {
		*set = NewIDSet()
	}
	return *set, nil
}

// References returns the set backing kind.
func (u *User) References(kind ReferenceKind) (IDSet, error) {
	return u.references(kind)
}

// AddReference adds id to the set selected by kind.
func (u *User) AddReference(kind ReferenceKind, id primitive.ObjectID) error {
	set, err := u.references(kind)
	if err != nil {
		return err
	}
	if id.IsZero() {
		return ErrInvalidIdentifier
	}
	set.Add(id)
	return nil
}

// RemoveReference removes id from the set selected by kind and reports whether
// the set changed.
func (u *User) RemoveReference(kind ReferenceKind, id primitive.ObjectID) (bool, error) {
	set, err := u.references(kind)
	if err != nil {
		return false, err
	}
	if id.IsZero() {
		return false, ErrInvalidIdentifier
	}
	return set.Remove(id), nil
}

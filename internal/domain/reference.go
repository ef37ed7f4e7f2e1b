package domain

// ReferenceKind selects one of a user's reference sets.
type ReferenceKind string

const (
	KindDrink    ReferenceKind = "drink"
	KindFavorite ReferenceKind = "favorite"
	KindReview   ReferenceKind = "review"
)

// IsValid checks if the ReferenceKind is one of the defined constants.
func (k ReferenceKind) IsValid() bool {
	switch k {
	case KindDrink, KindFavorite, KindReview:
		return true
	}
	return false
}

package codec

import (
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// driverShape re-decodes doc the way the Mongo driver hands documents back.
func driverShape(t *testing.T, doc bson.M) bson.M {
	t.Helper()
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var out bson.M
	require.NoError(t, bson.Unmarshal(raw, &out))
	return out
}

func TestUser_RoundTrip(t *testing.T) {
	u := domain.NewUser("Ada", "Lovelace", "ada@example.com", "$2a$10$hash")
	u.ID = primitive.NewObjectID()
	u.DrinkIDs.Add(primitive.NewObjectID())
	u.ReviewIDs.Add(primitive.NewObjectID())
	u.ReviewIDs.Add(primitive.NewObjectID())
	u.FavoriteIDs.Add(primitive.NewObjectID())

	for name, doc := range map[string]bson.M{
		"in memory": UserToDocument(u),
		"driver":    driverShape(t, UserToDocument(u)),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := UserFromDocument(doc)
			require.NoError(t, err)
			assert.Equal(t, u, got)
		})
	}
}

func TestDrink_RoundTrip(t *testing.T) {
	d := domain.NewDrink("ada@example.com", "Gimlet", []domain.Ingredient{{"2 oz", "gin"}, {"1 oz", "lime"}})
	d.ID = primitive.NewObjectID()
	d.Image = "http://minio/drinks/gimlet.png"
	d.ReviewIDs.Add(primitive.NewObjectID())
	d.Sum = 4
	d.Rating = 4.0

	got, err := DrinkFromDocument(driverShape(t, DrinkToDocument(d)))
	require.NoError(t, err)
	assert.Equal(t, d, got)

	got, err = DrinkFromDocument(DrinkToDocument(d))
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestReview_RoundTrip(t *testing.T) {
	r, err := domain.NewReview("ada@example.com", primitive.NewObjectID(), "crisp", 4)
	require.NoError(t, err)
	r.ID = primitive.NewObjectID()

	got, err := ReviewFromDocument(driverShape(t, ReviewToDocument(r)))
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, r.AuthorEmail, got.AuthorEmail)
	assert.Equal(t, r.DrinkID, got.DrinkID)
	assert.Equal(t, r.Comment, got.Comment)
	assert.Equal(t, r.Rating, got.Rating)
	assert.True(t, r.CreatedAt.Equal(got.CreatedAt), "want %s got %s", r.CreatedAt, got.CreatedAt)
}

func TestToDocument_OmitsZeroID(t *testing.T) {
	doc := UserToDocument(domain.NewUser("a", "b", "c@d.e", "x"))
	_, ok := doc[FieldID]
	assert.False(t, ok)

	doc = DrinkToDocument(domain.NewDrink("c@d.e", "n", nil))
	_, ok = doc[FieldID]
	assert.False(t, ok)
	assert.Equal(t, domain.UnratedSentinel, doc[FieldRating])
}

func TestFromDocument_Normalizes(t *testing.T) {
	id := primitive.NewObjectID()
	ref := primitive.NewObjectID()

	t.Run("hex identifiers and duplicate array entries", func(t *testing.T) {
		u, err := UserFromDocument(bson.M{
			FieldID:        id.Hex(),
			FieldEmail:     "ada@example.com",
			FieldReviewIDs: []interface{}{ref.Hex(), ref, ref.Hex()},
		})
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.Len(t, u.ReviewIDs, 1)
		assert.True(t, u.ReviewIDs.Has(ref))
		assert.Empty(t, u.DrinkIDs)
		assert.Empty(t, u.FavoriteIDs)
	})

	t.Run("number widths", func(t *testing.T) {
		for _, sum := range []interface{}{int32(7), int64(7), 7.0, 7} {
			d, err := DrinkFromDocument(bson.M{
				FieldID:        id,
				FieldUserEmail: "ada@example.com",
				FieldName:      "Gimlet",
				FieldSum:       sum,
				FieldRating:    int32(4),
			})
			require.NoError(t, err)
			assert.Equal(t, 7, d.Sum)
			assert.Equal(t, 4.0, d.Rating)
		}
	})

	t.Run("time.Time dates", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		r, err := ReviewFromDocument(bson.M{
			FieldID:        id,
			FieldUserEmail: "ada@example.com",
			FieldDrinkID:   ref.Hex(),
			FieldRating:    int64(3),
			FieldDate:      now,
		})
		require.NoError(t, err)
		assert.True(t, now.Equal(r.CreatedAt))
		assert.Equal(t, ref, r.DrinkID)
	})

	t.Run("missing drink rating means unrated", func(t *testing.T) {
		d, err := DrinkFromDocument(bson.M{FieldID: id, FieldUserEmail: "a@b.c", FieldName: "n"})
		require.NoError(t, err)
		assert.Equal(t, domain.UnratedSentinel, d.Rating)
		assert.Equal(t, 0, d.Sum)
	})
}

func TestFromDocument_Malformed(t *testing.T) {
	id := primitive.NewObjectID()

	tests := []struct {
		name   string
		decode func() error
		field  string
	}{
		{"user without id", func() error {
			_, err := UserFromDocument(bson.M{FieldEmail: "a@b.c"})
			return err
		}, FieldID},
		{"user with numeric email", func() error {
			_, err := UserFromDocument(bson.M{FieldID: id, FieldEmail: 12})
			return err
		}, FieldEmail},
		{"user with scalar review_ids", func() error {
			_, err := UserFromDocument(bson.M{FieldID: id, FieldEmail: "a@b.c", FieldReviewIDs: "x"})
			return err
		}, FieldReviewIDs},
		{"user with bad element", func() error {
			_, err := UserFromDocument(bson.M{FieldID: id, FieldEmail: "a@b.c", FieldDrinkIDs: bson.A{"nope"}})
			return err
		}, FieldDrinkIDs},
		{"drink without name", func() error {
			_, err := DrinkFromDocument(bson.M{FieldID: id, FieldUserEmail: "a@b.c"})
			return err
		}, FieldName},
		{"drink with fractional sum", func() error {
			_, err := DrinkFromDocument(bson.M{FieldID: id, FieldUserEmail: "a@b.c", FieldName: "n", FieldSum: 1.5})
			return err
		}, FieldSum},
		{"drink with flat ingredients", func() error {
			_, err := DrinkFromDocument(bson.M{FieldID: id, FieldUserEmail: "a@b.c", FieldName: "n", FieldIngredients: bson.A{"gin"}})
			return err
		}, FieldIngredients},
		{"review without rating", func() error {
			_, err := ReviewFromDocument(bson.M{FieldID: id, FieldUserEmail: "a@b.c", FieldDrinkID: id})
			return err
		}, FieldRating},
		{"review with string date", func() error {
			_, err := ReviewFromDocument(bson.M{FieldID: id, FieldUserEmail: "a@b.c", FieldDrinkID: id, FieldRating: 3, FieldDate: "yesterday"})
			return err
		}, FieldDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedDocument)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestUserReferenceField(t *testing.T) {
	for kind, field := range map[domain.ReferenceKind]string{
		domain.KindDrink:    FieldDrinkIDs,
		domain.KindFavorite: FieldFavoriteIDs,
		domain.KindReview:   FieldReviewIDs,
	} {
		got, err := UserReferenceField(kind)
		require.NoError(t, err)
		assert.Equal(t, field, got)
	}

	_, err := UserReferenceField("bogus")
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

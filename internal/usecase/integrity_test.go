package usecase

import (
	"context"
	"math/rand"
	"testing"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/codec"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRatingScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("attach then detach", func(t *testing.T) {
		f := newFixture(t)
		f.user(t, "ada@example.com")
		d := f.drink(t, "ada@example.com", "Gimlet")
		assert.Equal(t, domain.UnratedSentinel, d.Rating)

		r := f.review(t, "ada@example.com", d, 4)
		got := f.reloadDrink(t, d)
		assert.Equal(t, 4.0, got.Rating)
		assert.Equal(t, 4, got.Sum)
		assert.True(t, got.ReviewIDs.Has(r.ID))
		assert.True(t, f.reloadUser(t, "ada@example.com").ReviewIDs.Has(r.ID))

		deleted, err := f.reviews.DeleteReview(ctx, r.ID.Hex())
		require.NoError(t, err)
		assert.True(t, deleted)

		got = f.reloadDrink(t, d)
		assert.Equal(t, domain.UnratedSentinel, got.Rating)
		assert.Equal(t, 0, got.Sum)
		assert.Empty(t, got.ReviewIDs)
		assert.Empty(t, f.reloadUser(t, "ada@example.com").ReviewIDs)
	})

	t.Run("two reviews average", func(t *testing.T) {
		f := newFixture(t)
		f.user(t, "ada@example.com")
		f.user(t, "bob@example.com")
		d := f.drink(t, "ada@example.com", "Gimlet")

		f.review(t, "ada@example.com", d, 3)
		f.review(t, "bob@example.com", d, 5)

		got := f.reloadDrink(t, d)
		assert.Equal(t, 4.0, got.Rating)
		assert.Equal(t, 8, got.Sum)
		assert.Equal(t, 2, got.ReviewCount())
	})

	t.Run("rating update", func(t *testing.T) {
		f := newFixture(t)
		f.user(t, "ada@example.com")
		d := f.drink(t, "ada@example.com", "Gimlet")
		r := f.review(t, "ada@example.com", d, 2)

		updated, err := f.reviews.UpdateReview(ctx, r.ID.Hex(), map[string]interface{}{"rating": 5.0, "comment": "better"})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, 5, updated.Rating)
		assert.Equal(t, "better", updated.Comment)

		got := f.reloadDrink(t, d)
		assert.Equal(t, 5, got.Sum)
		assert.Equal(t, 5.0, got.Rating)

		f.events.AssertCalled(t, "Publish", mock.Anything, SubjectDrinkRatingUpdated, mock.Anything)
		f.events.AssertCalled(t, "Publish", mock.Anything, SubjectReviewUpdated, mock.Anything)
	})

	t.Run("half star rounding", func(t *testing.T) {
		f := newFixture(t)
		emails := []string{"u0@example.com", "u1@example.com", "u2@example.com"}
		for _, e := range emails {
			f.user(t, e)
		}
		d := f.drink(t, emails[0], "Negroni")
		for i, r := range []int{5, 4, 4} {
			f.review(t, emails[i], d, r)
		}
		// 13/3 = 4.33
		assert.Equal(t, 4.5, f.reloadDrink(t, d).Rating)
	})
}

func TestIntegrityManager_ReplaySafe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "ada@example.com")
	d := f.drink(t, "ada@example.com", "Gimlet")
	r := f.review(t, "ada@example.com", d, 4)

	// a retried attach must not count the rating twice
	drink, err := f.integrity.AttachReview(ctx, d.ID, r.ID, "ada@example.com", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, drink.Sum)
	assert.Equal(t, 1, drink.ReviewCount())

	drink, err = f.integrity.DetachReview(ctx, d.ID, r.ID, "ada@example.com", 4)
	require.NoError(t, err)
	assert.Equal(t, 0, drink.Sum)
	assert.Equal(t, domain.UnratedSentinel, drink.Rating)

	drink, err = f.integrity.DetachReview(ctx, d.ID, r.ID, "ada@example.com", 4)
	require.NoError(t, err)
	assert.Equal(t, 0, drink.Sum)
	assert.Empty(t, f.reloadUser(t, "ada@example.com").ReviewIDs)
}

func TestIntegrityManager_RefreshHealsStaleRating(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "ada@example.com")
	d := f.drink(t, "ada@example.com", "Gimlet")
	r := f.review(t, "ada@example.com", d, 4)

	// simulate a crash between the aggregate update and the rating refresh
	_, err := f.store.UpdateOne(ctx, domain.DrinksCollection, bson.M{"_id": d.ID}, bson.M{"$set": bson.M{"rating": 1.0}})
	require.NoError(t, err)

	drink, err := f.integrity.AttachReview(ctx, d.ID, r.ID, "ada@example.com", 4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, drink.Rating)
	assert.Equal(t, 4.0, f.reloadDrink(t, d).Rating)
}

func TestIntegrityManager_MissingReferents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "ada@example.com")
	d := f.drink(t, "ada@example.com", "Gimlet")

	_, err := f.integrity.AttachReview(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "ada@example.com", 3)
	assert.ErrorIs(t, err, domain.ErrDrinkNotFound)
	assert.ErrorIs(t, err, domain.ErrReferentMissing)

	_, err = f.integrity.AttachReview(ctx, d.ID, primitive.NewObjectID(), "ghost@example.com", 3)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = f.integrity.ApplyRatingDelta(ctx, primitive.NewObjectID(), primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, domain.ErrDrinkNotFound)

	_, err = f.integrity.AttachItem(ctx, domain.KindFavorite, "ghost@example.com", d.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = f.integrity.DetachItem(ctx, domain.KindFavorite, "ghost@example.com", d.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = f.integrity.AttachItem(ctx, domain.ReferenceKind("bogus"), "ada@example.com", d.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidKind)

	_, err = f.integrity.AttachItem(ctx, domain.KindDrink, "ada@example.com", primitive.NilObjectID)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}

func TestDeleteDrink_Cascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "ada@example.com")
	f.user(t, "bob@example.com")
	d := f.drink(t, "ada@example.com", "Gimlet")
	other := f.drink(t, "bob@example.com", "Martini")

	r1 := f.review(t, "ada@example.com", d, 3)
	r2 := f.review(t, "bob@example.com", d, 5)
	keep := f.review(t, "bob@example.com", other, 2)
	_, err := f.users.AddFavorite(ctx, "bob@example.com", d.ID.Hex())
	require.NoError(t, err)

	deleted, err := f.drinks.DeleteDrink(ctx, d.ID.Hex())
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := f.drinks.GetDrink(ctx, d.ID.Hex())
	require.NoError(t, err)
	assert.Nil(t, got)

	reviews, err := f.reviews.GetReviews(ctx, []string{r1.ID.Hex(), r2.ID.Hex(), keep.ID.Hex()})
	require.NoError(t, err)
	assert.Nil(t, reviews[0])
	assert.Nil(t, reviews[1])
	require.NotNil(t, reviews[2])

	ada := f.reloadUser(t, "ada@example.com")
	assert.Empty(t, ada.DrinkIDs)
	assert.Empty(t, ada.ReviewIDs)

	bob := f.reloadUser(t, "bob@example.com")
	assert.Equal(t, []primitive.ObjectID{keep.ID}, bob.ReviewIDs.Slice())
	assert.Equal(t, []primitive.ObjectID{other.ID}, bob.DrinkIDs.Slice())
	assert.Empty(t, bob.FavoriteIDs)

	assert.Equal(t, 2.0, f.reloadDrink(t, other).Rating)

	deleted, err = f.drinks.DeleteDrink(ctx, d.ID.Hex())
	require.NoError(t, err)
	assert.False(t, deleted)

	f.events.AssertCalled(t, "Publish", mock.Anything, SubjectDrinkDeleted, mock.Anything)
}

func TestDeleteDrink_RemovesUnattachedReviews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "ada@example.com")
	d := f.drink(t, "ada@example.com", "Gimlet")

	// a review inserted without the attach step
	orphan, err := domain.NewReview("ada@example.com", d.ID, "half done", 4)
	require.NoError(t, err)
	orphanID, err := f.store.InsertOne(ctx, domain.ReviewsCollection, codec.ReviewToDocument(orphan))
	require.NoError(t, err)

	_, err = f.drinks.DeleteDrink(ctx, d.ID.Hex())
	require.NoError(t, err)

	got, err := f.reviews.GetReview(ctx, orphanID.Hex())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteReview_ToleratesVanishedDrink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "ada@example.com")
	d := f.drink(t, "ada@example.com", "Gimlet")
	r := f.review(t, "ada@example.com", d, 4)

	// drink removed behind the integrity manager's back
	_, err := f.store.DeleteOne(ctx, domain.DrinksCollection, bson.M{"_id": d.ID})
	require.NoError(t, err)

	deleted, err := f.reviews.DeleteReview(ctx, r.ID.Hex())
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, f.reloadUser(t, "ada@example.com").ReviewIDs)
}

// After any sequence of creates, rating updates and deletes, every drink's
// aggregate equals a from-scratch computation and all links are symmetric.
func TestIntegrity_RandomizedConsistency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rng := rand.New(rand.NewSource(7))

	emails := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"}
	for _, e := range emails {
		f.user(t, e)
	}
	drinks := []*domain.Drink{
		f.drink(t, emails[0], "Gimlet"),
		f.drink(t, emails[1], "Martini"),
		f.drink(t, emails[2], "Negroni"),
	}

	for step := 0; step < 200; step++ {
		email := emails[rng.Intn(len(emails))]
		drink := drinks[rng.Intn(len(drinks))]
		existing, err := f.reviews.findByKey(ctx, email, drink.ID)
		require.NoError(t, err)

		switch {
		case existing == nil:
			f.review(t, email, drink, rng.Intn(5)+1)
		case rng.Intn(2) == 0:
			_, err := f.reviews.UpdateReview(ctx, existing.ID.Hex(), map[string]interface{}{"rating": rng.Intn(5) + 1})
			require.NoError(t, err)
		default:
			_, err := f.reviews.DeleteReview(ctx, existing.ID.Hex())
			require.NoError(t, err)
		}

		assertConsistent(t, f, drinks, emails)
	}
}

func assertConsistent(t *testing.T, f *fixture, drinks []*domain.Drink, emails []string) {
	t.Helper()
	ctx := context.Background()

	docs, err := f.store.Find(ctx, domain.ReviewsCollection, bson.M{})
	require.NoError(t, err)

	sums := map[primitive.ObjectID]int{}
	byDrink := map[primitive.ObjectID]domain.IDSet{}
	byAuthor := map[string]domain.IDSet{}
	for _, doc := range docs {
		r, err := codec.ReviewFromDocument(doc)
		require.NoError(t, err)
		sums[r.DrinkID] += r.Rating
		if byDrink[r.DrinkID] == nil {
			byDrink[r.DrinkID] = domain.NewIDSet()
		}
		byDrink[r.DrinkID].Add(r.ID)
		if byAuthor[r.AuthorEmail] == nil {
			byAuthor[r.AuthorEmail] = domain.NewIDSet()
		}
		byAuthor[r.AuthorEmail].Add(r.ID)
	}

	for _, d := range drinks {
		got := f.reloadDrink(t, d)
		want := byDrink[d.ID]
		require.Equal(t, sums[d.ID], got.Sum, "sum of %s", d.Name)
		require.Equal(t, rating.Average(sums[d.ID], len(want)), got.Rating, "rating of %s", d.Name)
		require.ElementsMatch(t, domain.NewIDSet(want.Slice()...).Hex(), got.ReviewIDs.Hex(), "review ids of %s", d.Name)
	}
	for _, e := range emails {
		u := f.reloadUser(t, e)
		require.ElementsMatch(t, domain.NewIDSet(byAuthor[e].Slice()...).Hex(), u.ReviewIDs.Hex(), "review ids of %s", e)
	}
}

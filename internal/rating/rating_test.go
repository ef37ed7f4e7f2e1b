package rating

import (
	"math/rand"
	"testing"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNearestHalf(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.0, 1.0},
		{1.2, 1.0},
		{1.24, 1.0},
		{1.25, 1.5}, // tie rounds up
		{3.25, 3.5},
		{3.75, 4.0},
		{4.333333, 4.5},
		{4.6, 4.5},
		{4.8, 5.0},
		{-1.25, -1.5}, // ties away from zero
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NearestHalf(tt.in), "NearestHalf(%v)", tt.in)
	}
}

func TestAverage(t *testing.T) {
	assert.Equal(t, domain.UnratedSentinel, Average(0, 0))
	assert.Equal(t, domain.UnratedSentinel, Average(5, 0))
	assert.Equal(t, 4.0, Average(8, 2))
	assert.Equal(t, 3.5, Average(10, 3)) // 3.33 -> 3.5
	assert.Equal(t, 4.5, Average(13, 3)) // 4.33 -> 4.5
}

func TestApplyDelta_Scenarios(t *testing.T) {
	t.Run("attach then detach", func(t *testing.T) {
		d := domain.NewDrink("a@b.c", "Gimlet", nil)
		id := primitive.NewObjectID()

		require.NoError(t, d.AddReviewReference(id))
		ApplyDelta(d, 4)
		assert.Equal(t, 4.0, d.Rating)
		assert.Equal(t, 4, d.Sum)

		_, err := d.RemoveReviewReference(id)
		require.NoError(t, err)
		ApplyDelta(d, -4)
		assert.Equal(t, domain.UnratedSentinel, d.Rating)
		assert.Equal(t, 0, d.Sum)
	})

	t.Run("two reviews", func(t *testing.T) {
		d := domain.NewDrink("a@b.c", "Gimlet", nil)
		require.NoError(t, d.AddReviewReference(primitive.NewObjectID()))
		ApplyDelta(d, 3)
		require.NoError(t, d.AddReviewReference(primitive.NewObjectID()))
		ApplyDelta(d, 5)
		assert.Equal(t, 4.0, d.Rating)
	})

	t.Run("rating update", func(t *testing.T) {
		d := domain.NewDrink("a@b.c", "Gimlet", nil)
		require.NoError(t, d.AddReviewReference(primitive.NewObjectID()))
		ApplyDelta(d, 2)
		ApplyDelta(d, 5-2)
		assert.Equal(t, 5, d.Sum)
		assert.Equal(t, 5.0, d.Rating)
	})
}

// Any sequence of attach/update/detach leaves the running aggregate equal to
// a from-scratch computation over the surviving reviews.
func TestApplyDelta_MatchesRecompute(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		d := domain.NewDrink("a@b.c", "Gimlet", nil)
		live := map[primitive.ObjectID]int{}

		for step := 0; step < 40; step++ {
			switch op := rng.Intn(3); {
			case op == 0 || len(live) == 0:
				id := primitive.NewObjectID()
				r := rng.Intn(domain.MaxRating) + domain.MinRating
				require.NoError(t, d.AddReviewReference(id))
				ApplyDelta(d, r)
				live[id] = r
			case op == 1:
				for id, old := range live {
					r := rng.Intn(domain.MaxRating) + domain.MinRating
					ApplyDelta(d, r-old)
					live[id] = r
					break
				}
			default:
				for id, old := range live {
					_, err := d.RemoveReviewReference(id)
					require.NoError(t, err)
					ApplyDelta(d, -old)
					delete(live, id)
					break
				}
			}

			sum := 0
			for _, r := range live {
				sum += r
			}
			require.Equal(t, sum, d.Sum)
			require.Equal(t, len(live), d.ReviewCount())
			require.Equal(t, Average(sum, len(live)), d.Rating)
		}
	}
}

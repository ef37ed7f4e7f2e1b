// Package rating maintains a drink's displayed rating as an online mean over
// the ratings of its attached reviews.
package rating

import (
	"math"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
)

// NearestHalf rounds x to the nearest multiple of 0.5, ties away from zero.
func NearestHalf(x float64) float64 {
	return math.Round(x/0.5) * 0.5
}

// Average is the displayed rating for a running sum over count reviews.
func Average(sum, count int) float64 {
	if count <= 0 {
		return domain.UnratedSentinel
	}
	return NearestHalf(float64(sum) / float64(count))
}

// ApplyDelta folds delta into d.Sum and re-derives d.Rating from the current
// size of d.ReviewIDs. The review set must already reflect the change.
func ApplyDelta(d *domain.Drink, delta int) {
	d.Sum += delta
	d.Rating = Average(d.Sum, d.ReviewCount())
}

// Package rating computes the display aggregate for a review collection.
// The aggregate is always recomputed from the full collection so it can
// never drift from the reviews actually shown.
package rating

import (
	"math"
	"strconv"

	"wanparadise/pkg/domain"
)

// Max is the top of the rating scale.
const Max = 5

// Average returns sum(ratings)/count for the collection, 0 when empty.
// The result is clamped to [0, Max] to guard against malformed upstream
// data.
func Average(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	if avg < 0 {
		return 0
	}
	return math.Min(avg, Max)
}

// FormatAverage renders an average with one decimal place, e.g. "3.0".
func FormatAverage(avg float64) string {
	return strconv.FormatFloat(math.Round(avg*10)/10, 'f', 1, 64)
}

// Stars returns the filled star count for an average, rounded to the
// nearest whole star.
func Stars(avg float64) int {
	n := int(math.Round(avg))
	if n < 0 {
		return 0
	}
	if n > Max {
		return Max
	}
	return n
}

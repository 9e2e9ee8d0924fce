package aggregate

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OksanaKunikevych/nebula/internal/storage/models"
)

func reviewsWithRatings(ratings ...int) []models.RawReview {
	reviews := make([]models.RawReview, len(ratings))
	for i, r := range ratings {
		reviews[i] = models.RawReview{
			ItemID:     "1459969523",
			ReviewText: "great app, love the daily horoscope",
			Rating:     r,
		}
	}
	return reviews
}

func TestAggregateRatingScenario(t *testing.T) {
	m := Aggregate("1459969523", reviewsWithRatings(5, 5, 5, 1, 1))

	require.NotNil(t, m.AverageRating)
	assert.Equal(t, 3.4, *m.AverageRating)
	assert.Equal(t, 5, m.TotalReviews)
	assert.Equal(t, 60.0, m.RatingDistribution["5"])
	assert.Equal(t, 40.0, m.RatingDistribution["1"])
	assert.Equal(t, 0.0, m.RatingDistribution["2"])
	assert.Equal(t, 0.0, m.RatingDistribution["3"])
	assert.Equal(t, 0.0, m.RatingDistribution["4"])
}

func TestAggregateDistributionSumsTo100(t *testing.T) {
	m := Aggregate("1", reviewsWithRatings(1, 2, 2, 3, 4, 5, 5, 5, 4))

	sum := 0.0
	for _, pct := range m.RatingDistribution {
		sum += pct
	}
	assert.InDelta(t, 100.0, sum, 0.5)
}

func TestAggregateSingleReview(t *testing.T) {
	m := Aggregate("1", reviewsWithRatings(3))

	require.NotNil(t, m.AverageRating)
	assert.Equal(t, 3.0, *m.AverageRating)
	assert.Equal(t, 100.0, m.RatingDistribution["3"])
	assert.Equal(t, 0.0, m.ReviewLengthStats.Stdev)
}

func TestAggregateEmptyInput(t *testing.T) {
	m := Aggregate("1", nil)

	assert.Nil(t, m.AverageRating)
	assert.Equal(t, 0, m.TotalReviews)
	for star := 1; star <= 5; star++ {
		assert.Equal(t, 0.0, m.RatingDistribution[strconv.Itoa(star)])
	}
	assert.Equal(t, models.LengthStats{}, m.ReviewLengthStats)
}

func TestAggregateIdempotent(t *testing.T) {
	reviews := reviewsWithRatings(1, 3, 5, 5, 2, 4)

	first := Aggregate("1", reviews)
	second := Aggregate("1", reviews)

	assert.Equal(t, *first.AverageRating, *second.AverageRating)
	assert.Equal(t, first.RatingDistribution, second.RatingDistribution)
	assert.Equal(t, first.ReviewLengthStats, second.ReviewLengthStats)
}

func TestAggregatePermutationInvariant(t *testing.T) {
	forward := []models.RawReview{
		{Rating: 5, ReviewText: "short"},
		{Rating: 1, ReviewText: "a much longer review body with many words in it"},
		{Rating: 3, ReviewText: "medium length review text"},
	}
	reversed := []models.RawReview{forward[2], forward[1], forward[0]}

	a := Aggregate("1", forward)
	b := Aggregate("1", reversed)

	assert.Equal(t, *a.AverageRating, *b.AverageRating)
	assert.Equal(t, a.RatingDistribution, b.RatingDistribution)
	assert.Equal(t, a.ReviewLengthStats, b.ReviewLengthStats)
}

func TestLengthStats(t *testing.T) {
	reviews := []models.RawReview{
		{Rating: 5, ReviewText: "aaaa"},       // 4
		{Rating: 4, ReviewText: "aaaaaa"},     // 6
		{Rating: 3, ReviewText: "aaaaaaaaaa"}, // 10
	}

	m := Aggregate("1", reviews)

	assert.InDelta(t, 6.67, m.ReviewLengthStats.Mean, 0.01)
	assert.Equal(t, 6.0, m.ReviewLengthStats.Median)
	assert.InDelta(t, 3.06, m.ReviewLengthStats.Stdev, 0.01)
}

func TestLengthStatsEvenCountMedian(t *testing.T) {
	reviews := []models.RawReview{
		{Rating: 5, ReviewText: "aa"},
		{Rating: 5, ReviewText: "aaaa"},
		{Rating: 5, ReviewText: "aaaaaa"},
		{Rating: 5, ReviewText: "aaaaaaaa"},
	}

	m := Aggregate("1", reviews)
	assert.Equal(t, 5.0, m.ReviewLengthStats.Median)
}

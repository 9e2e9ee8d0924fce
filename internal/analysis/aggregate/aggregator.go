package aggregate

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/OksanaKunikevych/nebula/internal/storage/models"
)

// Aggregate computes the ReviewMetrics snapshot for one item. It is a pure
// function of the input set: deterministic and invariant under permutation of
// the input order. An empty input yields zeroed distributions and a nil
// average rating.
func Aggregate(itemID string, reviews []models.RawReview) models.ReviewMetrics {
	m := models.ReviewMetrics{
		ItemID:             itemID,
		LastUpdated:        time.Now().UTC(),
		TotalReviews:       len(reviews),
		RatingDistribution: emptyDistribution(),
	}

	if len(reviews) == 0 {
		return m
	}

	ratingSum := 0
	counts := make(map[int]int, 5)
	lengths := make([]int, len(reviews))
	for i, r := range reviews {
		ratingSum += r.Rating
		counts[r.Rating]++
		lengths[i] = len(r.ReviewText)
	}

	avg := round2(float64(ratingSum) / float64(len(reviews)))
	m.AverageRating = &avg

	for star := 1; star <= 5; star++ {
		pct := float64(counts[star]) / float64(len(reviews)) * 100
		m.RatingDistribution[starKey(star)] = round2(pct)
	}

	m.ReviewLengthStats = lengthStats(lengths)
	return m
}

// lengthStats computes mean/median/stdev of text lengths. Variance uses
// Welford's algorithm so large batches do not lose precision to cancellation.
func lengthStats(lengths []int) models.LengthStats {
	n := len(lengths)
	if n == 0 {
		return models.LengthStats{}
	}

	var mean, m2 float64
	for i, l := range lengths {
		x := float64(l)
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}

	stdev := 0.0
	if n > 1 {
		stdev = math.Sqrt(m2 / float64(n-1))
	}

	sorted := make([]int, n)
	copy(sorted, lengths)
	sort.Ints(sorted)

	var median float64
	if n%2 == 1 {
		median = float64(sorted[n/2])
	} else {
		median = float64(sorted[n/2-1]+sorted[n/2]) / 2
	}

	return models.LengthStats{
		Mean:   round2(mean),
		Median: median,
		Stdev:  round2(stdev),
	}
}

func emptyDistribution() map[string]float64 {
	dist := make(map[string]float64, 5)
	for star := 1; star <= 5; star++ {
		dist[starKey(star)] = 0
	}
	return dist
}

func starKey(star int) string {
	return strconv.Itoa(star)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

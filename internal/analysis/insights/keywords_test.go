package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountKeywordsDropsStopwordsAndShortTokens(t *testing.T) {
	counts := countKeywords([]string{"the app is ok but it keeps crashing"})

	assert.NotContains(t, counts, "the")
	assert.NotContains(t, counts, "is")
	assert.NotContains(t, counts, "it")
	assert.NotContains(t, counts, "ok")
	assert.Contains(t, counts, "crashing")
}

func TestCountKeywordsIgnoresPunctuationTokens(t *testing.T) {
	counts := countKeywords([]string{"crash!!! ... ?? crash, crash."})

	assert.Equal(t, 3, counts["crash"])
	for word := range counts {
		assert.NotContains(t, word, "!")
		assert.NotContains(t, word, ".")
	}
}

func TestTopKeywordsOrdering(t *testing.T) {
	counts := map[string]int{
		"crash":   4,
		"battery": 2,
		"ads":     2,
		"slow":    1,
	}

	top := topKeywords(counts, 10)

	// Descending frequency, lexicographic on ties ("ads" before "battery").
	assert.Equal(t, []string{"crash", "ads", "battery", "slow"}, top)
}

func TestTopKeywordsTruncates(t *testing.T) {
	counts := map[string]int{"one": 1, "two": 2, "three": 3}

	top := topKeywords(counts, 2)
	assert.Equal(t, []string{"three", "two"}, top)
}

func TestTopKeywordsEmpty(t *testing.T) {
	assert.Empty(t, topKeywords(map[string]int{}, 10))
}

func TestCountNounKeywordsFiltersToNouns(t *testing.T) {
	counts := countNounKeywords([]string{"the battery drains quickly and the screen flickers"})

	assert.Contains(t, counts, "battery")
	assert.Contains(t, counts, "screen")
	assert.NotContains(t, counts, "quickly")
}

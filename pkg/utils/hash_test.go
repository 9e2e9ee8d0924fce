package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashStringDeterministic(t *testing.T) {
	assert.Equal(t, HashString("hello"), HashString("hello"))
	assert.NotEqual(t, HashString("hello"), HashString("world"))
	assert.Len(t, HashString("anything"), 32)
}

func TestReviewFingerprintStable(t *testing.T) {
	a := ReviewFingerprint("great", "works well", 5)
	b := ReviewFingerprint("great", "works well", 5)
	assert.Equal(t, a, b)
}

func TestReviewFingerprintFieldsAreDistinct(t *testing.T) {
	base := ReviewFingerprint("great", "works well", 5)

	assert.NotEqual(t, base, ReviewFingerprint("great", "works well", 4))
	assert.NotEqual(t, base, ReviewFingerprint("great!", "works well", 5))
	// Field boundaries matter: moving text between title and body changes the key.
	assert.NotEqual(t, ReviewFingerprint("ab", "c", 1), ReviewFingerprint("a", "bc", 1))
}

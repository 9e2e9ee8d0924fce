package utils

import (
	"crypto/md5"
	"fmt"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// ReviewFingerprint builds the dedup key for a review: the same title, text
// and rating always map to the same hash, so re-collecting an item does not
// re-store unchanged reviews.
func ReviewFingerprint(title, text string, rating int) string {
	return HashString(fmt.Sprintf("%s\x1f%s\x1f%d", title, text, rating))
}

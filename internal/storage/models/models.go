package models

import "time"

// Sentiment labels assigned by the classifier. The pipeline is binary: a
// review scoring at or above the configured threshold is POSITIVE, everything
// below is NEGATIVE.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
)

// RawReview is one review as fetched from the App Store feed. Immutable once
// collected; Rating outside 1..5 is rejected at the source boundary.
type RawReview struct {
	ItemID      string    `json:"item_id"`
	ReviewTitle string    `json:"review_title"`
	ReviewText  string    `json:"review_text"`
	Rating      int       `json:"rating"`
	CollectedAt time.Time `json:"collected_at"`
}

// ProcessedReview is derived 1:1 from a RawReview, never created without one.
type ProcessedReview struct {
	ItemID         string    `json:"item_id"`
	ReviewTitle    string    `json:"review_title"`
	ReviewText     string    `json:"review_text"`
	Rating         int       `json:"rating"`
	SentimentScore float64   `json:"sentiment_score"`
	SentimentLabel string    `json:"sentiment_label"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// LengthStats summarizes review text length in characters.
type LengthStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Stdev  float64 `json:"stdev"`
}

// ReviewMetrics is a full-replace snapshot recomputed wholesale on every
// pipeline run. AverageRating is nil when there are no reviews.
type ReviewMetrics struct {
	ItemID             string             `json:"item_id"`
	LastUpdated        time.Time          `json:"last_updated"`
	AverageRating      *float64           `json:"average_rating"`
	RatingDistribution map[string]float64 `json:"rating_distribution"`
	TotalReviews       int                `json:"total_reviews"`
	ReviewLengthStats  LengthStats        `json:"review_length_stats"`
}

// InsightsMetrics is the qualitative snapshot for an item, derived entirely
// from the current processed-review set. KeywordCloudImage holds a
// base64-encoded PNG, or "" when no image could be rendered.
type InsightsMetrics struct {
	ItemID                string             `json:"item_id"`
	LastUpdated           time.Time          `json:"last_updated"`
	OverallSentiment      string             `json:"overall_sentiment"`
	SentimentScore        *float64           `json:"sentiment_score"`
	SentimentDistribution map[string]float64 `json:"sentiment_distribution"`
	NegativeKeywords      []string           `json:"negative_keywords"`
	ImprovementAreas      []string           `json:"improvement_areas"`
	KeywordCloudImage     string             `json:"keyword_cloud_image"`
}

// PipelineResult is what one orchestrator invocation hands back to the caller.
type PipelineResult struct {
	ProcessedReviewsCount int             `json:"processed_reviews_count"`
	Metrics               ReviewMetrics   `json:"metrics"`
	Insights              InsightsMetrics `json:"insights"`
}

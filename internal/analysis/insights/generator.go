package insights

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/OksanaKunikevych/nebula/internal/storage/models"
	"github.com/OksanaKunikevych/nebula/pkg/logger"
)

// Generator derives the InsightsMetrics snapshot from a fixed set of
// classified reviews. All sub-outputs are computed from the one input slice;
// nothing is re-fetched mid-computation.
type Generator struct {
	topK          int
	fontPath      string
	cloudWidth    int
	cloudHeight   int
	cloudMaxWords int
}

type Option func(*Generator)

func WithWordCloud(fontPath string, width, height, maxWords int) Option {
	return func(g *Generator) {
		g.fontPath = fontPath
		g.cloudWidth = width
		g.cloudHeight = height
		g.cloudMaxWords = maxWords
	}
}

func NewGenerator(topK int, opts ...Option) *Generator {
	if topK <= 0 {
		topK = 10
	}
	g := &Generator{
		topK:          topK,
		cloudWidth:    1024,
		cloudHeight:   768,
		cloudMaxWords: 50,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate computes the full insight snapshot. Ties in the overall sentiment
// (exact 50/50, or an empty input) resolve to POSITIVE.
func (g *Generator) Generate(itemID string, reviews []models.ProcessedReview) models.InsightsMetrics {
	m := models.InsightsMetrics{
		ItemID:           itemID,
		LastUpdated:      time.Now().UTC(),
		OverallSentiment: models.SentimentPositive,
		SentimentDistribution: map[string]float64{
			models.SentimentPositive: 0,
			models.SentimentNegative: 0,
		},
		NegativeKeywords: []string{},
		ImprovementAreas: []string{},
	}

	if len(reviews) == 0 {
		return m
	}

	positives := 0
	scoreSum := 0.0
	allTexts := make([]string, 0, len(reviews))
	var negativeTexts []string

	for _, r := range reviews {
		scoreSum += r.SentimentScore
		allTexts = append(allTexts, r.ReviewText)
		if r.SentimentLabel == models.SentimentNegative {
			negativeTexts = append(negativeTexts, r.ReviewText)
		} else {
			positives++
		}
	}

	total := len(reviews)
	negatives := total - positives

	m.SentimentDistribution[models.SentimentPositive] = round2(float64(positives) / float64(total) * 100)
	m.SentimentDistribution[models.SentimentNegative] = round2(float64(negatives) / float64(total) * 100)

	if negatives > positives {
		m.OverallSentiment = models.SentimentNegative
	}

	avg := round2(scoreSum / float64(total))
	m.SentimentScore = &avg

	negativeCounts := countKeywords(negativeTexts)
	m.NegativeKeywords = topKeywords(negativeCounts, g.topK)
	m.ImprovementAreas = topKeywords(countNounKeywords(negativeTexts), g.topK)
	m.KeywordCloudImage = g.renderWordCloud(countKeywords(allTexts))

	logger.Debug("Insights generated",
		zap.String("item_id", itemID),
		zap.Int("reviews", total),
		zap.Int("negative", negatives),
		zap.Int("negative_keywords", len(m.NegativeKeywords)),
		zap.Bool("image", m.KeywordCloudImage != ""),
	)

	return m
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

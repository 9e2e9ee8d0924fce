package sentiment

import (
	"context"
	"strings"
	"sync"

	"github.com/jonreiter/govader"
	"go.uber.org/zap"

	"github.com/OksanaKunikevych/nebula/internal/storage/models"
	"github.com/OksanaKunikevych/nebula/pkg/logger"
)

// Result is one classification outcome. Score is the VADER compound score in
// [-1, 1]; Label is POSITIVE iff Score >= the configured threshold.
type Result struct {
	Score float64
	Label string
}

// Classifier wraps the VADER lexicon analyzer. The lexicon is loaded once in
// NewClassifier and is read-only afterwards, so one instance is safe to share
// across concurrent pipeline runs.
type Classifier struct {
	analyzer  *govader.SentimentIntensityAnalyzer
	threshold float64
	workers   int
}

func NewClassifier(threshold float64, workers int) *Classifier {
	if workers <= 0 {
		workers = 1
	}
	return &Classifier{
		analyzer:  govader.NewSentimentIntensityAnalyzer(),
		threshold: threshold,
		workers:   workers,
	}
}

// Classify scores a single review. Title and body are joined with ". " and
// scored as one text, so title tokens carry the same weight as body tokens.
// Empty or whitespace-only input scores 0.0 and is labeled by the threshold
// rule rather than failing.
func (c *Classifier) Classify(text, title string) Result {
	combined := strings.TrimSpace(title)
	body := strings.TrimSpace(text)
	if combined != "" && body != "" {
		combined = combined + ". " + body
	} else {
		combined += body
	}

	score := 0.0
	if combined != "" {
		score = c.analyzer.PolarityScores(combined).Compound
		if score > 1 {
			score = 1
		} else if score < -1 {
			score = -1
		}
	}

	return Result{Score: score, Label: c.label(score)}
}

// ClassifyMany scores a batch over a bounded worker pool, reassembling the
// output in input order regardless of completion order. One result per input,
// always: reviews not scored before a cancellation fall back to score 0.0 and
// the threshold rule, so every label is valid.
func (c *Classifier) ClassifyMany(ctx context.Context, reviews []models.RawReview) []Result {
	results := make([]Result, len(reviews))
	if len(reviews) == 0 {
		return results
	}

	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup

	submitted := len(reviews)
	for i := range reviews {
		if ctx.Err() != nil {
			submitted = i
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = c.Classify(reviews[idx].ReviewText, reviews[idx].ReviewTitle)
		}(i)
	}

	wg.Wait()

	for i := submitted; i < len(reviews); i++ {
		results[i] = Result{Score: 0, Label: c.label(0)}
	}

	logger.Debug("Batch classified",
		zap.Int("reviews", len(reviews)),
		zap.Int("workers", c.workers),
	)
	return results
}

func (c *Classifier) label(score float64) string {
	if score >= c.threshold {
		return models.SentimentPositive
	}
	return models.SentimentNegative
}

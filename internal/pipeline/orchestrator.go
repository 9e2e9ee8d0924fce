package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/OksanaKunikevych/nebula/internal/analysis/aggregate"
	"github.com/OksanaKunikevych/nebula/internal/analysis/insights"
	"github.com/OksanaKunikevych/nebula/internal/analysis/sentiment"
	"github.com/OksanaKunikevych/nebula/internal/metrics"
	"github.com/OksanaKunikevych/nebula/internal/source/appstore"
	"github.com/OksanaKunikevych/nebula/internal/storage/models"
	"github.com/OksanaKunikevych/nebula/pkg/logger"
)

// ErrPersistence marks a run whose results were computed but not durably
// saved. Distinct from fetch and classify failures so the caller can tell
// them apart.
var ErrPersistence = errors.New("persistence failure")

// State tracks where a run is in fetch -> classify -> aggregate -> persist.
type State int

const (
	StateFetching State = iota
	StateClassifying
	StateAggregating
	StatePersisting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateClassifying:
		return "classifying"
	case StateAggregating:
		return "aggregating"
	case StatePersisting:
		return "persisting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Source supplies raw reviews for an item identifier.
type Source interface {
	FetchReviews(ctx context.Context, itemID string, limit int) ([]models.RawReview, error)
}

// Store persists the four pipeline artifacts.
type Store interface {
	SaveRawReviews(reviews []models.RawReview) (int, error)
	SaveProcessedReviews(reviews []models.ProcessedReview) (int, error)
	SaveMetrics(m *models.ReviewMetrics) error
	SaveInsights(m *models.InsightsMetrics) error
}

// Orchestrator coordinates one pipeline run per invocation. Runs for distinct
// items are independent; the classifier and generator it holds are read-only
// and shared across concurrent runs.
type Orchestrator struct {
	source     Source
	store      Store
	classifier *sentiment.Classifier
	generator  *insights.Generator
}

func NewOrchestrator(source Source, store Store, classifier *sentiment.Classifier, generator *insights.Generator) *Orchestrator {
	return &Orchestrator{
		source:     source,
		store:      store,
		classifier: classifier,
		generator:  generator,
	}
}

// Run executes one fetch -> classify -> aggregate -> persist pass for an
// item. An empty fetch is not an error: the run proceeds and produces
// empty-set snapshots. A persistence failure is reported as ErrPersistence
// after all computation has completed.
func (o *Orchestrator) Run(ctx context.Context, itemID string, limit int) (*models.PipelineResult, error) {
	started := time.Now()
	state := StateFetching
	runID := uuid.NewString()

	logger.Info("Pipeline run started",
		zap.String("run_id", runID),
		zap.String("item_id", itemID),
		zap.Int("limit", limit),
	)

	raws, err := o.source.FetchReviews(ctx, itemID, limit)
	if err != nil {
		return nil, o.fail(itemID, state, err)
	}

	state = StateClassifying
	if err := ctx.Err(); err != nil {
		return nil, o.fail(itemID, state, err)
	}

	classifyStart := time.Now()
	results := o.classifier.ClassifyMany(ctx, raws)
	if err := ctx.Err(); err != nil {
		return nil, o.fail(itemID, state, err)
	}
	metrics.PipelineDuration.WithLabelValues("classify").Observe(time.Since(classifyStart).Seconds())

	processedAt := time.Now().UTC()
	processed := make([]models.ProcessedReview, len(raws))
	for i, raw := range raws {
		processed[i] = models.ProcessedReview{
			ItemID:         raw.ItemID,
			ReviewTitle:    raw.ReviewTitle,
			ReviewText:     raw.ReviewText,
			Rating:         raw.Rating,
			SentimentScore: results[i].Score,
			SentimentLabel: results[i].Label,
			ProcessedAt:    processedAt,
		}
	}

	state = StateAggregating

	// Metrics and insights have no ordering dependency and read the same
	// fixed snapshot, so they run in parallel.
	var reviewMetrics models.ReviewMetrics
	var insightMetrics models.InsightsMetrics
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reviewMetrics = aggregate.Aggregate(itemID, raws)
	}()
	go func() {
		defer wg.Done()
		insightMetrics = o.generator.Generate(itemID, processed)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, o.fail(itemID, state, err)
	}

	state = StatePersisting
	if err := o.persist(raws, processed, &reviewMetrics, &insightMetrics); err != nil {
		metrics.PipelineRuns.WithLabelValues(StateFailed.String()).Inc()
		logger.Error("Pipeline run failed",
			zap.String("item_id", itemID),
			zap.String("stage", state.String()),
			zap.Error(err),
		)
		// Computation succeeded; hand the result back alongside the
		// distinct persistence error.
		return &models.PipelineResult{
			ProcessedReviewsCount: len(processed),
			Metrics:               reviewMetrics,
			Insights:              insightMetrics,
		}, fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	metrics.PipelineRuns.WithLabelValues(StateDone.String()).Inc()
	metrics.PipelineDuration.WithLabelValues("total").Observe(time.Since(started).Seconds())
	metrics.ReviewsProcessed.Add(float64(len(processed)))

	logger.Info("Pipeline run completed",
		zap.String("run_id", runID),
		zap.String("item_id", itemID),
		zap.Int("processed", len(processed)),
		zap.Duration("duration", time.Since(started)),
	)

	return &models.PipelineResult{
		ProcessedReviewsCount: len(processed),
		Metrics:               reviewMetrics,
		Insights:              insightMetrics,
	}, nil
}

func (o *Orchestrator) persist(raws []models.RawReview, processed []models.ProcessedReview,
	reviewMetrics *models.ReviewMetrics, insightMetrics *models.InsightsMetrics) error {

	if _, err := o.store.SaveRawReviews(raws); err != nil {
		return fmt.Errorf("failed to save raw reviews: %w", err)
	}
	if _, err := o.store.SaveProcessedReviews(processed); err != nil {
		return fmt.Errorf("failed to save processed reviews: %w", err)
	}
	if err := o.store.SaveMetrics(reviewMetrics); err != nil {
		return fmt.Errorf("failed to save metrics: %w", err)
	}
	if err := o.store.SaveInsights(insightMetrics); err != nil {
		return fmt.Errorf("failed to save insights: %w", err)
	}
	return nil
}

func (o *Orchestrator) fail(itemID string, state State, err error) error {
	metrics.PipelineRuns.WithLabelValues(StateFailed.String()).Inc()
	logger.Error("Pipeline run failed",
		zap.String("item_id", itemID),
		zap.String("stage", state.String()),
		zap.Error(err),
	)
	if errors.Is(err, appstore.ErrUnknownItem) || errors.Is(err, appstore.ErrUnavailable) ||
		errors.Is(err, ErrPersistence) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("pipeline %s: %w", state.String(), err)
}

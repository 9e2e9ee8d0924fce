package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/OksanaKunikevych/nebula/internal/cache/redis"
	"github.com/OksanaKunikevych/nebula/internal/pipeline"
	"github.com/OksanaKunikevych/nebula/internal/source/appstore"
	"github.com/OksanaKunikevych/nebula/internal/storage/models"
	"github.com/OksanaKunikevych/nebula/internal/storage/sqlite"
	"github.com/OksanaKunikevych/nebula/pkg/logger"
)

var itemIDPattern = regexp.MustCompile(`^\d{1,12}$`)

type metricsResponse struct {
	Metrics  *models.ReviewMetrics   `json:"metrics"`
	Insights *models.InsightsMetrics `json:"insights"`
}

// ReviewHandler serves the collect / raw / metrics routes. The cache is
// optional; a nil cache disables response caching.
type ReviewHandler struct {
	orchestrator *pipeline.Orchestrator
	db           *sqlite.Client
	cache        *redis.Client
	defaultLimit int
}

func NewReviewHandler(orchestrator *pipeline.Orchestrator, db *sqlite.Client, cache *redis.Client, defaultLimit int) *ReviewHandler {
	return &ReviewHandler{
		orchestrator: orchestrator,
		db:           db,
		cache:        cache,
		defaultLimit: defaultLimit,
	}
}

// CollectReviews runs the full pipeline for an item and returns the combined
// result. POST /api/v1/reviews/:item_id?limit=
func (h *ReviewHandler) CollectReviews(c *fiber.Ctx) error {
	itemID := c.Params("item_id")
	if !itemIDPattern.MatchString(itemID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "item_id must be a numeric App Store identifier",
		})
	}

	limit := c.QueryInt("limit", h.defaultLimit)
	if limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must be a positive integer",
		})
	}

	result, err := h.orchestrator.Run(c.Context(), itemID, limit)
	if err != nil {
		switch {
		case errors.Is(err, appstore.ErrUnknownItem):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": fmt.Sprintf("item %s not found", itemID),
			})
		case errors.Is(err, appstore.ErrUnavailable):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "review source is unavailable, please try again later",
			})
		case errors.Is(err, pipeline.ErrPersistence):
			// Results were computed but not saved; report distinctly.
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "results computed but could not be saved",
				"kind":  "persistence_failure",
				"data": fiber.Map{
					"processed_reviews_count": result.ProcessedReviewsCount,
					"metrics":                 result.Metrics,
					"insights":                result.Insights,
				},
			})
		default:
			logger.Error("Failed to run pipeline", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to collect reviews",
			})
		}
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(c.Context(), itemID); err != nil {
			logger.Warn("Failed to invalidate metrics cache", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": fmt.Sprintf("successfully collected and processed %d reviews", result.ProcessedReviewsCount),
		"data": fiber.Map{
			"processed_reviews_count": result.ProcessedReviewsCount,
			"metrics":                 result.Metrics,
			"insights":                result.Insights,
		},
	})
}

// GetRawReviews serves stored raw reviews as a downloadable JSON file.
// GET /api/v1/reviews/:item_id/raw?limit=
func (h *ReviewHandler) GetRawReviews(c *fiber.Ctx) error {
	itemID := c.Params("item_id")
	if !itemIDPattern.MatchString(itemID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "item_id must be a numeric App Store identifier",
		})
	}

	limit := c.QueryInt("limit", h.defaultLimit)
	if limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must be a positive integer",
		})
	}

	reviews, err := h.db.GetRawReviews(itemID, limit)
	if err != nil {
		logger.Error("Failed to read raw reviews", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read raw reviews",
		})
	}
	if reviews == nil {
		reviews = []models.RawReview{}
	}

	payload, err := json.MarshalIndent(fiber.Map{
		"item_id": itemID,
		"reviews": reviews,
	}, "", "  ")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to encode raw reviews",
		})
	}

	filename := fmt.Sprintf("%s_raw_reviews_%s.json", itemID, time.Now().Format("20060102_150405"))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(payload)
}

// GetMetrics returns the stored metrics and insights snapshots.
// GET /api/v1/reviews/:item_id/metrics
func (h *ReviewHandler) GetMetrics(c *fiber.Ctx) error {
	itemID := c.Params("item_id")
	if !itemIDPattern.MatchString(itemID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "item_id must be a numeric App Store identifier",
		})
	}

	if h.cache != nil {
		var cached metricsResponse
		hit, err := h.cache.GetMetricsResponse(c.Context(), itemID, &cached)
		if err != nil {
			logger.Warn("Metrics cache read failed", zap.Error(err))
		} else if hit {
			return c.JSON(fiber.Map{
				"status": "success",
				"data":   cached,
			})
		}
	}

	reviewMetrics, err := h.db.GetMetrics(itemID)
	if err != nil {
		logger.Error("Failed to read metrics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read metrics",
		})
	}
	if reviewMetrics == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("no metrics found for item %s", itemID),
		})
	}

	insightMetrics, err := h.db.GetInsights(itemID)
	if err != nil {
		logger.Error("Failed to read insights", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read insights",
		})
	}

	response := metricsResponse{Metrics: reviewMetrics, Insights: insightMetrics}

	if h.cache != nil {
		if err := h.cache.SetMetricsResponse(c.Context(), itemID, response); err != nil {
			logger.Warn("Failed to cache metrics response", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   response,
	})
}

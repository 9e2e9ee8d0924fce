package appstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/OksanaKunikevych/nebula/internal/metrics"
	"github.com/OksanaKunikevych/nebula/internal/storage/models"
	"github.com/OksanaKunikevych/nebula/internal/textclean"
	"github.com/OksanaKunikevych/nebula/pkg/circuitbreaker"
	"github.com/OksanaKunikevych/nebula/pkg/logger"
	"github.com/OksanaKunikevych/nebula/pkg/retry"
)

var (
	// ErrUnknownItem means the store confirmed the identifier does not
	// exist. Never retried.
	ErrUnknownItem = errors.New("unknown item identifier")
	// ErrUnavailable means the feed was unreachable or rate-limited.
	// Retried with backoff before being surfaced.
	ErrUnavailable = errors.New("review source unavailable")
)

const (
	defaultFeedHost = "https://itunes.apple.com"
	feedPath        = "/%s/rss/customerreviews/page=%d/id=%s/sortby=mostrecent/json"
	reviewsPerPage  = 50
	maxPages        = 10
)

// Client fetches customer reviews from the iTunes RSS feed. Requests are
// wrapped in a circuit breaker and a bounded retry with backoff.
type Client struct {
	host       string
	country    string
	httpClient *http.Client
	retryCfg   retry.Config
	breaker    *circuitbreaker.CircuitBreaker
}

func NewClient(country string, timeout time.Duration, retryCount int, retryBackoff time.Duration) *Client {
	return &Client{
		host:    defaultFeedHost,
		country: country,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryCfg: retry.Config{
			MaxAttempts:    retryCount,
			InitialDelay:   retryBackoff,
			MaxDelay:       10 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
			NonRetryable:   []error{ErrUnknownItem},
			Logger:         logger.Log,
		},
		breaker: circuitbreaker.New("appstore-feed", circuitbreaker.Config{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          30 * time.Second,
			Logger:           logger.Log,
		}),
	}
}

// FetchReviews returns up to limit reviews for the item, walking feed pages
// until the limit is reached or the feed runs dry. An item with zero reviews
// is not an error. Reviews whose body is empty after cleaning are skipped,
// as are entries with a rating outside 1..5.
func (c *Client) FetchReviews(ctx context.Context, itemID string, limit int) ([]models.RawReview, error) {
	logger.Info("Fetching reviews",
		zap.String("item_id", itemID),
		zap.Int("limit", limit),
	)

	collected := make([]models.RawReview, 0, limit)

	for page := 1; page <= maxPages && len(collected) < limit; page++ {
		entries, err := retry.DoWithResult(ctx, c.retryCfg, func() ([]feedEntry, error) {
			return c.fetchPage(ctx, itemID, page)
		})
		if err != nil {
			if errors.Is(err, ErrUnknownItem) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
		}

		metrics.FeedPagesFetched.Inc()

		if len(entries) == 0 {
			break
		}

		now := time.Now().UTC()
		for _, e := range entries {
			if len(collected) >= limit {
				break
			}

			rating, err := strconv.Atoi(e.Rating.Label)
			if err != nil || rating < 1 || rating > 5 {
				logger.Debug("Skipping review with invalid rating", zap.String("rating", e.Rating.Label))
				continue
			}

			text := textclean.Clean(e.Content.Label)
			if text == "" {
				continue
			}

			collected = append(collected, models.RawReview{
				ItemID:      itemID,
				ReviewTitle: textclean.Clean(e.Title.Label),
				ReviewText:  text,
				Rating:      rating,
				CollectedAt: now,
			})
		}

		if len(entries) < reviewsPerPage {
			break
		}
	}

	logger.Info("Review fetch completed",
		zap.String("item_id", itemID),
		zap.Int("reviews", len(collected)),
	)
	return collected, nil
}

func (c *Client) fetchPage(ctx context.Context, itemID string, page int) ([]feedEntry, error) {
	var entries []feedEntry

	err := c.breaker.Execute(ctx, func() error {
		url := c.host + fmt.Sprintf(feedPath, c.country, page, itemID)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("feed request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: item %s", ErrUnknownItem, itemID)
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("feed returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read feed response: %w", err)
		}

		entries, err = parseFeed(body)
		if err != nil {
			return fmt.Errorf("failed to parse feed: %w", err)
		}
		return nil
	})

	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
	}
	return entries, err
}

type feedLabel struct {
	Label string `json:"label"`
}

type feedEntry struct {
	Title   feedLabel `json:"title"`
	Content feedLabel `json:"content"`
	Rating  feedLabel `json:"im:rating"`
}

func parseFeed(body []byte) ([]feedEntry, error) {
	var feed struct {
		Feed struct {
			Entry json.RawMessage `json:"entry"`
		} `json:"feed"`
	}

	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, err
	}

	// The feed omits "entry" entirely for items with no reviews, and emits a
	// bare object instead of an array when there is exactly one.
	if len(feed.Feed.Entry) == 0 {
		return nil, nil
	}

	var entries []feedEntry
	if err := json.Unmarshal(feed.Feed.Entry, &entries); err == nil {
		return entries, nil
	}

	var single feedEntry
	if err := json.Unmarshal(feed.Feed.Entry, &single); err != nil {
		return nil, err
	}
	return []feedEntry{single}, nil
}

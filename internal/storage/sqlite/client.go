package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/OksanaKunikevych/nebula/internal/storage/models"
	"github.com/OksanaKunikevych/nebula/pkg/logger"
	"github.com/OksanaKunikevych/nebula/pkg/utils"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS raw_reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		review_title TEXT,
		review_text TEXT NOT NULL,
		rating INTEGER NOT NULL,
		collected_at INTEGER NOT NULL,
		UNIQUE(item_id, content_hash)
	);
	CREATE INDEX IF NOT EXISTS idx_raw_item ON raw_reviews(item_id);

	CREATE TABLE IF NOT EXISTS processed_reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		review_title TEXT,
		review_text TEXT NOT NULL,
		rating INTEGER NOT NULL,
		sentiment_score REAL NOT NULL,
		sentiment_label TEXT NOT NULL,
		processed_at INTEGER NOT NULL,
		UNIQUE(item_id, content_hash)
	);
	CREATE INDEX IF NOT EXISTS idx_processed_item ON processed_reviews(item_id);

	CREATE TABLE IF NOT EXISTS review_metrics (
		item_id TEXT PRIMARY KEY,
		last_updated INTEGER NOT NULL,
		average_rating REAL,
		rating_distribution TEXT NOT NULL,
		total_reviews INTEGER NOT NULL,
		review_length_stats TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS insights_metrics (
		item_id TEXT PRIMARY KEY,
		last_updated INTEGER NOT NULL,
		overall_sentiment TEXT NOT NULL,
		sentiment_score REAL,
		sentiment_distribution TEXT NOT NULL,
		negative_keywords TEXT NOT NULL,
		improvement_areas TEXT NOT NULL,
		keyword_cloud_image TEXT NOT NULL
	);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// SaveRawReviews appends reviews for an item, skipping rows whose content
// hash is already stored. Returns the number of newly inserted rows.
func (c *Client) SaveRawReviews(reviews []models.RawReview) (int, error) {
	query := `
		INSERT OR IGNORE INTO raw_reviews (item_id, content_hash, review_title, review_text, rating, collected_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	inserted := 0
	for _, r := range reviews {
		hash := utils.ReviewFingerprint(r.ReviewTitle, r.ReviewText, r.Rating)
		res, err := c.db.Exec(query, r.ItemID, hash, r.ReviewTitle, r.ReviewText, r.Rating, r.CollectedAt.Unix())
		if err != nil {
			return inserted, fmt.Errorf("failed to insert raw review: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	logger.Debug("Raw reviews saved",
		zap.Int("received", len(reviews)),
		zap.Int("inserted", inserted),
	)
	return inserted, nil
}

func (c *Client) SaveProcessedReviews(reviews []models.ProcessedReview) (int, error) {
	query := `
		INSERT OR IGNORE INTO processed_reviews
			(item_id, content_hash, review_title, review_text, rating, sentiment_score, sentiment_label, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	inserted := 0
	for _, r := range reviews {
		hash := utils.ReviewFingerprint(r.ReviewTitle, r.ReviewText, r.Rating)
		res, err := c.db.Exec(query, r.ItemID, hash, r.ReviewTitle, r.ReviewText, r.Rating,
			r.SentimentScore, r.SentimentLabel, r.ProcessedAt.Unix())
		if err != nil {
			return inserted, fmt.Errorf("failed to insert processed review: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	logger.Debug("Processed reviews saved",
		zap.Int("received", len(reviews)),
		zap.Int("inserted", inserted),
	)
	return inserted, nil
}

// SaveMetrics replaces the metrics snapshot for an item. The single upsert
// statement keeps the replacement atomic.
func (c *Client) SaveMetrics(m *models.ReviewMetrics) error {
	distJSON, err := json.Marshal(m.RatingDistribution)
	if err != nil {
		return fmt.Errorf("failed to marshal rating distribution: %w", err)
	}
	lengthJSON, err := json.Marshal(m.ReviewLengthStats)
	if err != nil {
		return fmt.Errorf("failed to marshal length stats: %w", err)
	}

	query := `
		INSERT INTO review_metrics (item_id, last_updated, average_rating, rating_distribution, total_reviews, review_length_stats)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			last_updated = excluded.last_updated,
			average_rating = excluded.average_rating,
			rating_distribution = excluded.rating_distribution,
			total_reviews = excluded.total_reviews,
			review_length_stats = excluded.review_length_stats
	`

	var avg sql.NullFloat64
	if m.AverageRating != nil {
		avg = sql.NullFloat64{Float64: *m.AverageRating, Valid: true}
	}

	_, err = c.db.Exec(query, m.ItemID, m.LastUpdated.Unix(), avg, string(distJSON), m.TotalReviews, string(lengthJSON))
	if err != nil {
		return fmt.Errorf("failed to save metrics: %w", err)
	}

	logger.Debug("Metrics snapshot saved", zap.String("item_id", m.ItemID))
	return nil
}

func (c *Client) SaveInsights(m *models.InsightsMetrics) error {
	distJSON, err := json.Marshal(m.SentimentDistribution)
	if err != nil {
		return fmt.Errorf("failed to marshal sentiment distribution: %w", err)
	}
	negJSON, err := json.Marshal(m.NegativeKeywords)
	if err != nil {
		return fmt.Errorf("failed to marshal negative keywords: %w", err)
	}
	areasJSON, err := json.Marshal(m.ImprovementAreas)
	if err != nil {
		return fmt.Errorf("failed to marshal improvement areas: %w", err)
	}

	query := `
		INSERT INTO insights_metrics
			(item_id, last_updated, overall_sentiment, sentiment_score, sentiment_distribution, negative_keywords, improvement_areas, keyword_cloud_image)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			last_updated = excluded.last_updated,
			overall_sentiment = excluded.overall_sentiment,
			sentiment_score = excluded.sentiment_score,
			sentiment_distribution = excluded.sentiment_distribution,
			negative_keywords = excluded.negative_keywords,
			improvement_areas = excluded.improvement_areas,
			keyword_cloud_image = excluded.keyword_cloud_image
	`

	var score sql.NullFloat64
	if m.SentimentScore != nil {
		score = sql.NullFloat64{Float64: *m.SentimentScore, Valid: true}
	}

	_, err = c.db.Exec(query, m.ItemID, m.LastUpdated.Unix(), m.OverallSentiment, score,
		string(distJSON), string(negJSON), string(areasJSON), m.KeywordCloudImage)
	if err != nil {
		return fmt.Errorf("failed to save insights: %w", err)
	}

	logger.Debug("Insights snapshot saved", zap.String("item_id", m.ItemID))
	return nil
}

func (c *Client) GetRawReviews(itemID string, limit int) ([]models.RawReview, error) {
	query := `
		SELECT item_id, review_title, review_text, rating, collected_at
		FROM raw_reviews
		WHERE item_id = ?
		ORDER BY collected_at DESC, id DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get raw reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.RawReview
	for rows.Next() {
		var r models.RawReview
		var collectedAt int64

		err := rows.Scan(&r.ItemID, &r.ReviewTitle, &r.ReviewText, &r.Rating, &collectedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.CollectedAt = time.Unix(collectedAt, 0)
		reviews = append(reviews, r)
	}

	return reviews, rows.Err()
}

func (c *Client) GetProcessedReviews(itemID string, limit int) ([]models.ProcessedReview, error) {
	query := `
		SELECT item_id, review_title, review_text, rating, sentiment_score, sentiment_label, processed_at
		FROM processed_reviews
		WHERE item_id = ?
		ORDER BY processed_at DESC, id DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get processed reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.ProcessedReview
	for rows.Next() {
		var r models.ProcessedReview
		var processedAt int64

		err := rows.Scan(&r.ItemID, &r.ReviewTitle, &r.ReviewText, &r.Rating,
			&r.SentimentScore, &r.SentimentLabel, &processedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.ProcessedAt = time.Unix(processedAt, 0)
		reviews = append(reviews, r)
	}

	return reviews, rows.Err()
}

// GetMetrics returns the stored snapshot for an item, or nil when the item
// has never been collected.
func (c *Client) GetMetrics(itemID string) (*models.ReviewMetrics, error) {
	query := `
		SELECT item_id, last_updated, average_rating, rating_distribution, total_reviews, review_length_stats
		FROM review_metrics WHERE item_id = ?
	`

	var m models.ReviewMetrics
	var lastUpdated int64
	var avg sql.NullFloat64
	var distJSON, lengthJSON string

	err := c.db.QueryRow(query, itemID).Scan(&m.ItemID, &lastUpdated, &avg, &distJSON, &m.TotalReviews, &lengthJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}

	m.LastUpdated = time.Unix(lastUpdated, 0)
	if avg.Valid {
		m.AverageRating = &avg.Float64
	}
	if err := json.Unmarshal([]byte(distJSON), &m.RatingDistribution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rating distribution: %w", err)
	}
	if err := json.Unmarshal([]byte(lengthJSON), &m.ReviewLengthStats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal length stats: %w", err)
	}

	return &m, nil
}

func (c *Client) GetInsights(itemID string) (*models.InsightsMetrics, error) {
	query := `
		SELECT item_id, last_updated, overall_sentiment, sentiment_score, sentiment_distribution,
			negative_keywords, improvement_areas, keyword_cloud_image
		FROM insights_metrics WHERE item_id = ?
	`

	var m models.InsightsMetrics
	var lastUpdated int64
	var score sql.NullFloat64
	var distJSON, negJSON, areasJSON string

	err := c.db.QueryRow(query, itemID).Scan(&m.ItemID, &lastUpdated, &m.OverallSentiment, &score,
		&distJSON, &negJSON, &areasJSON, &m.KeywordCloudImage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insights: %w", err)
	}

	m.LastUpdated = time.Unix(lastUpdated, 0)
	if score.Valid {
		m.SentimentScore = &score.Float64
	}
	if err := json.Unmarshal([]byte(distJSON), &m.SentimentDistribution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sentiment distribution: %w", err)
	}
	if err := json.Unmarshal([]byte(negJSON), &m.NegativeKeywords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal negative keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(areasJSON), &m.ImprovementAreas); err != nil {
		return nil, fmt.Errorf("failed to unmarshal improvement areas: %w", err)
	}

	return &m, nil
}

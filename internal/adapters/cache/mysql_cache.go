package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spamsift/spamsift/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the ResultCache interface
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS prediction_cache (
			text_digest VARCHAR(64) PRIMARY KEY,
			is_spam BOOLEAN,
			confidence DOUBLE,
			spam_probability DOUBLE,
			ham_probability DOUBLE,
			processing_time_ms DOUBLE,
			model_version VARCHAR(64),
			word_count INT,
			char_count INT,
			avg_word_length DOUBLE,
			uppercase_ratio DOUBLE,
			created_at TIMESTAMP,
			expires_at TIMESTAMP,
			INDEX idx_prediction_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	c := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go c.startCleanupTask()

	return c, nil
}

// Get retrieves a cached classification
func (c *MySQLCache) Get(ctx context.Context, key string) (*core.Classification, bool) {
	result := &core.Classification{}

	err := c.db.QueryRowContext(ctx, `
		SELECT is_spam, confidence, spam_probability, ham_probability, processing_time_ms,
			model_version, word_count, char_count, avg_word_length, uppercase_ratio
		FROM prediction_cache
		WHERE text_digest = ? AND expires_at > NOW()
	`, key).Scan(
		&result.IsSpam, &result.Confidence, &result.SpamProbability, &result.HamProbability,
		&result.ProcessingTimeMs, &result.ModelVersion, &result.TextStats.WordCount,
		&result.TextStats.CharCount, &result.TextStats.AvgWordLength, &result.TextStats.UppercaseRatio)

	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("Failed to query cache", zap.Error(err), zap.String("key", key))
		}
		return nil, false
	}

	return result, true
}

// Set stores a classification with the given TTL
func (c *MySQLCache) Set(ctx context.Context, key string, result *core.Classification, ttl time.Duration) {
	now := time.Now()
	_, err := c.db.ExecContext(ctx, `
		REPLACE INTO prediction_cache
			(text_digest, is_spam, confidence, spam_probability, ham_probability, processing_time_ms,
				model_version, word_count, char_count, avg_word_length, uppercase_ratio, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, key, result.IsSpam, result.Confidence, result.SpamProbability, result.HamProbability,
		result.ProcessingTimeMs, result.ModelVersion, result.TextStats.WordCount,
		result.TextStats.CharCount, result.TextStats.AvgWordLength, result.TextStats.UppercaseRatio,
		now, now.Add(ttl))

	if err != nil {
		c.logger.Error("Failed to insert cache entry", zap.Error(err), zap.String("key", key))
	}
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM prediction_cache WHERE expires_at <= NOW()`)
	if err != nil {
		return fmt.Errorf("failed to clean up cache: %w", err)
	}
	if removed, err := res.RowsAffected(); err == nil && removed > 0 {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("removed", removed))
	}
	return nil
}

// startCleanupTask periodically removes expired entries
func (c *MySQLCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Cache cleanup failed", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database
func (c *MySQLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close MySQL database", zap.Error(err))
		}
	})
}

package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spamsift/spamsift/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the ResultCache interface
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS prediction_cache (
			text_digest TEXT PRIMARY KEY,
			is_spam BOOLEAN,
			confidence REAL,
			spam_probability REAL,
			ham_probability REAL,
			processing_time_ms REAL,
			model_version TEXT,
			word_count INTEGER,
			char_count INTEGER,
			avg_word_length REAL,
			uppercase_ratio REAL,
			created_at TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on expires_at for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_prediction_expires_at ON prediction_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	c := &SQLiteCache{
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
func (c *SQLiteCache) Get(ctx context.Context, key string) (*core.Classification, bool) {
	result := &core.Classification{}

	err := c.db.QueryRowContext(ctx, `
		SELECT is_spam, confidence, spam_probability, ham_probability, processing_time_ms,
			model_version, word_count, char_count, avg_word_length, uppercase_ratio
		FROM prediction_cache
		WHERE text_digest = ? AND expires_at > ?
	`, key, time.Now().Format(time.RFC3339)).Scan(
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
func (c *SQLiteCache) Set(ctx context.Context, key string, result *core.Classification, ttl time.Duration) {
	now := time.Now()
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO prediction_cache
			(text_digest, is_spam, confidence, spam_probability, ham_probability, processing_time_ms,
				model_version, word_count, char_count, avg_word_length, uppercase_ratio, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, key, result.IsSpam, result.Confidence, result.SpamProbability, result.HamProbability,
		result.ProcessingTimeMs, result.ModelVersion, result.TextStats.WordCount,
		result.TextStats.CharCount, result.TextStats.AvgWordLength, result.TextStats.UppercaseRatio,
		now.Format(time.RFC3339), now.Add(ttl).Format(time.RFC3339))

	if err != nil {
		c.logger.Error("Failed to insert cache entry", zap.Error(err), zap.String("key", key))
	}
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	res, err := c.db.ExecContext(ctx, `
		DELETE FROM prediction_cache WHERE expires_at <= ?
	`, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to clean up cache: %w", err)
	}
	if removed, err := res.RowsAffected(); err == nil && removed > 0 {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("removed", removed))
	}
	return nil
}

// startCleanupTask periodically removes expired entries
func (c *SQLiteCache) startCleanupTask() {
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
func (c *SQLiteCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close SQLite database", zap.Error(err))
		}
	})
}

package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
)

// ClassifierService fronts the Predictor with an optional result cache.
// The HTTP API and the SMTP filter both call through it.
type ClassifierService struct {
	predictor    *Predictor
	cache        ResultCache
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
}

// NewClassifierService creates a new classifier service
func NewClassifierService(
	predictor *Predictor,
	cache ResultCache,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
) *ClassifierService {
	return &ClassifierService{
		predictor:    predictor,
		cache:        cache,
		logger:       logger,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
	}
}

// cacheKey digests the raw text so the cache never stores email content as
// its key.
func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Classify runs a single prediction, consulting the cache first. Cached
// results are keyed by the raw text, so normalization differences never
// cause stale hits.
func (s *ClassifierService) Classify(ctx context.Context, text string) (*Classification, error) {
	var key string
	if s.cacheEnabled && s.cache != nil {
		key = cacheKey(text)
		if cached, ok := s.cache.Get(ctx, key); ok {
			s.logger.Debug("Cache hit", zap.String("key", key))
			return cached, nil
		}
	}

	result, err := s.predictor.Predict(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled && s.cache != nil {
		s.cache.Set(ctx, key, result, s.cacheTTL)
	}
	return result, nil
}

// ClassifyBatch runs a batch prediction. Batch results are not cached;
// per-item caching would defeat the single wall-clock measurement.
func (s *ClassifierService) ClassifyBatch(ctx context.Context, items []BatchItem) *BatchResult {
	return s.predictor.PredictBatch(ctx, items)
}

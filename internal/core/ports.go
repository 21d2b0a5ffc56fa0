package core

import (
	"context"
	"time"
)

// Vectorizer maps normalized text into the fixed feature space it was
// trained on. Unseen tokens are dropped.
type Vectorizer interface {
	// Transform converts normalized text to a feature vector of
	// length Dimension.
	Transform(text string) ([]float64, error)

	// Dimension returns the size of the feature space.
	Dimension() int
}

// Model classifies a feature vector. Implementations are read-only after
// load and safe for concurrent use.
type Model interface {
	// Predict returns the predicted class label (LabelHam or LabelSpam).
	Predict(features []float64) (int, error)

	// PredictProba returns the probability distribution over classes,
	// indexed [P(ham), P(spam)].
	PredictProba(features []float64) ([]float64, error)
}

// VectorClassifier is an optional capability for backends that derive the
// label and the probability distribution from a single inference pass. The
// predictor probes for it via type assertion so such backends run once per
// prediction instead of once for Predict and once for PredictProba.
type VectorClassifier interface {
	// Classify returns (label, [P(ham), P(spam)]) for a feature vector.
	Classify(features []float64) (int, []float64, error)
}

// TextModel is an optional capability for backends that classify from text
// directly instead of a feature vector (remote LLM providers). The predictor
// probes for it via type assertion.
type TextModel interface {
	// ClassifyText returns (label, [P(ham), P(spam)]) for normalized text.
	ClassifyText(ctx context.Context, text string) (int, []float64, error)
}

// ResultCache stores classification results keyed by a digest of the raw
// email text.
type ResultCache interface {
	// Get retrieves a cached classification, reporting whether it was found
	// and still fresh.
	Get(ctx context.Context, key string) (*Classification, bool)

	// Set stores a classification with the given time to live.
	Set(ctx context.Context, key string, result *Classification, ttl time.Duration)

	// Cleanup removes expired entries.
	Cleanup(ctx context.Context) error
}

package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ArtifactProvider hands out the loaded (Vectorizer, Model) pair. The
// predictor borrows a reference per call and never mutates or persists it.
type ArtifactProvider interface {
	Get(ctx context.Context) (Vectorizer, Model, error)
}

// Predictor is the synchronous unit of work turning raw email text into a
// Classification. It introduces no locks or queues of its own; all shared
// state lives behind the ArtifactProvider.
type Predictor struct {
	artifacts    ArtifactProvider
	normalizer   *Normalizer
	logger       *zap.Logger
	maxLength    int
	modelVersion string
}

// NewPredictor creates a new Predictor
func NewPredictor(
	artifacts ArtifactProvider,
	normalizer *Normalizer,
	logger *zap.Logger,
	maxLength int,
	modelVersion string,
) *Predictor {
	return &Predictor{
		artifacts:    artifacts,
		normalizer:   normalizer,
		logger:       logger,
		maxLength:    maxLength,
		modelVersion: modelVersion,
	}
}

// Predict classifies a single email. It returns a ValidationError for bad
// input, a ModelLoadError when artifacts cannot be served, and a
// PredictionError for any backend failure. The three are never conflated.
func (p *Predictor) Predict(ctx context.Context, text string) (*Classification, error) {
	start := time.Now()

	if err := p.normalizer.Validate(text, p.maxLength); err != nil {
		p.logger.Warn("Input validation failed", zap.Error(err))
		return nil, err
	}

	cleaned := p.normalizer.Clean(text)

	vectorizer, model, err := p.artifacts.Get(ctx)
	if err != nil {
		return nil, err
	}

	label, probs, err := p.classify(ctx, vectorizer, model, cleaned)
	if err != nil {
		p.logger.Error("Classification failed", zap.Error(err))
		return nil, err
	}

	result, err := p.assemble(label, probs)
	if err != nil {
		p.logger.Error("Classification failed", zap.Error(err))
		return nil, err
	}
	result.ProcessingTimeMs = float64(time.Since(start)) / float64(time.Millisecond)
	result.ModelVersion = p.modelVersion
	result.TextStats = p.normalizer.Stats(text)

	p.logger.Info("Prediction complete",
		zap.Bool("is_spam", result.IsSpam),
		zap.Float64("confidence", result.Confidence),
		zap.Float64("processing_time_ms", result.ProcessingTimeMs))

	return result, nil
}

// classify obtains a label and probability distribution from the backend.
// Backends that implement the TextModel capability classify from normalized
// text directly. Feature-vector backends implementing VectorClassifier are
// asked once for both outputs; everything else gets the two-call path.
func (p *Predictor) classify(ctx context.Context, vectorizer Vectorizer, model Model, cleaned string) (int, []float64, error) {
	if tm, ok := model.(TextModel); ok {
		label, probs, err := tm.ClassifyText(ctx, cleaned)
		if err != nil {
			return 0, nil, &PredictionError{Stage: "classification", Cause: err}
		}
		return label, probs, nil
	}

	features, err := vectorizer.Transform(cleaned)
	if err != nil {
		return 0, nil, &PredictionError{Stage: "vectorization", Cause: err}
	}

	if vc, ok := model.(VectorClassifier); ok {
		label, probs, err := vc.Classify(features)
		if err != nil {
			return 0, nil, &PredictionError{Stage: "classification", Cause: err}
		}
		return label, probs, nil
	}

	label, err := model.Predict(features)
	if err != nil {
		return 0, nil, &PredictionError{Stage: "classification", Cause: err}
	}

	probs, err := model.PredictProba(features)
	if err != nil {
		return 0, nil, &PredictionError{Stage: "classification", Cause: err}
	}
	return label, probs, nil
}

// assemble derives confidence and per-class probabilities from the raw
// distribution.
func (p *Predictor) assemble(label int, probs []float64) (*Classification, error) {
	if len(probs) == 0 {
		return nil, &PredictionError{Stage: "classification", Cause: errEmptyDistribution}
	}

	confidence := probs[0]
	for _, pr := range probs[1:] {
		if pr > confidence {
			confidence = pr
		}
	}

	isSpam := label == LabelSpam
	var spamProb, hamProb float64
	if len(probs) >= 2 {
		hamProb = probs[0]
		spamProb = probs[1]
	} else {
		// Degenerate single-probability output: treat it as the confidence
		// of the predicted class and derive the complement.
		p.logger.Warn("Model returned a single probability",
			zap.Float64("probability", probs[0]))
		if isSpam {
			spamProb = confidence
			hamProb = 1 - confidence
		} else {
			hamProb = confidence
			spamProb = 1 - confidence
		}
	}

	return &Classification{
		IsSpam:          isSpam,
		Confidence:      confidence,
		SpamProbability: spamProb,
		HamProbability:  hamProb,
	}, nil
}

// PredictBatch classifies items in input order. A failing item is dropped
// from the output and recorded in Dropped; the batch itself never fails.
func (p *Predictor) PredictBatch(ctx context.Context, items []BatchItem) *BatchResult {
	start := time.Now()

	batch := &BatchResult{
		Results: make([]BatchItemResult, 0, len(items)),
	}
	for _, item := range items {
		result, err := p.Predict(ctx, item.Text)
		if err != nil {
			if IsValidationError(err) {
				p.logger.Warn("Skipping invalid batch item",
					zap.String("id", item.ID), zap.Error(err))
			} else {
				p.logger.Error("Skipping failed batch item",
					zap.String("id", item.ID), zap.Error(err))
			}
			batch.Dropped = append(batch.Dropped, item.ID)
			continue
		}
		batch.Results = append(batch.Results, BatchItemResult{ID: item.ID, Result: result})
	}

	batch.TotalProcessed = len(batch.Results)
	batch.ProcessingTimeMs = float64(time.Since(start)) / float64(time.Millisecond)

	p.logger.Info("Batch prediction complete",
		zap.Int("requested", len(items)),
		zap.Int("processed", batch.TotalProcessed),
		zap.Float64("processing_time_ms", batch.ProcessingTimeMs))

	return batch
}

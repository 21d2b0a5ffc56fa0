package training

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/adapters/bayes"
	"github.com/spamsift/spamsift/internal/core"
)

// Options controls a training run.
type Options struct {
	MaxFeatures int
	Alpha       float64
	TestFrac    float64
	Seed        int64
}

// Result bundles the fitted artifacts with the holdout evaluation.
type Result struct {
	Vectorizer *bayes.TFIDFVectorizer
	Model      *bayes.MultinomialNB
	Metrics    Metrics
	TrainSize  int
	TestSize   int
}

// Trainer fits a TF-IDF vectorizer and Naive Bayes model on a labeled
// corpus. Texts are normalized with the same cleaner the predictor uses,
// so training and serving see identical input.
type Trainer struct {
	normalizer *core.Normalizer
	logger     *zap.Logger
}

// NewTrainer creates a trainer.
func NewTrainer(normalizer *core.Normalizer, logger *zap.Logger) *Trainer {
	return &Trainer{normalizer: normalizer, logger: logger}
}

// Train cleans the samples, splits them into train/test with a seeded
// shuffle, fits the artifacts on the training fold and evaluates on the
// holdout.
func (t *Trainer) Train(samples []Sample, opts Options) (*Result, error) {
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = 3000
	}
	if opts.Alpha <= 0 {
		opts.Alpha = 1.0
	}
	if opts.TestFrac <= 0 || opts.TestFrac >= 1 {
		opts.TestFrac = 0.2
	}
	if len(samples) < 10 {
		return nil, fmt.Errorf("dataset too small: %d samples", len(samples))
	}

	cleaned := make([]Sample, len(samples))
	for i, s := range samples {
		cleaned[i] = Sample{Text: t.normalizer.Clean(s.Text), Label: s.Label}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(cleaned), func(i, j int) {
		cleaned[i], cleaned[j] = cleaned[j], cleaned[i]
	})

	testSize := int(float64(len(cleaned)) * opts.TestFrac)
	if testSize == 0 {
		testSize = 1
	}
	test := cleaned[:testSize]
	train := cleaned[testSize:]

	t.logger.Info("Fitting model",
		zap.Int("train_size", len(train)),
		zap.Int("test_size", len(test)),
		zap.Int("max_features", opts.MaxFeatures),
		zap.Float64("alpha", opts.Alpha))

	trainDocs := make([]string, len(train))
	trainLabels := make([]int, len(train))
	for i, s := range train {
		trainDocs[i] = s.Text
		trainLabels[i] = s.Label
	}

	vectorizer := bayes.NewTFIDFVectorizer(opts.MaxFeatures)
	if err := vectorizer.Fit(trainDocs); err != nil {
		return nil, fmt.Errorf("fitting vectorizer: %w", err)
	}

	features := make([][]float64, len(trainDocs))
	for i, doc := range trainDocs {
		vec, err := vectorizer.Transform(doc)
		if err != nil {
			return nil, fmt.Errorf("vectorizing training sample %d: %w", i, err)
		}
		features[i] = vec
	}

	model := bayes.NewMultinomialNB(opts.Alpha)
	if err := model.Fit(features, trainLabels); err != nil {
		return nil, fmt.Errorf("fitting model: %w", err)
	}

	metrics, err := Evaluate(vectorizer, model, test)
	if err != nil {
		return nil, fmt.Errorf("evaluating model: %w", err)
	}

	t.logger.Info("Training complete",
		zap.Float64("accuracy", metrics.Accuracy),
		zap.Float64("precision", metrics.Precision),
		zap.Float64("recall", metrics.Recall),
		zap.Float64("f1", metrics.F1))

	return &Result{
		Vectorizer: vectorizer,
		Model:      model,
		Metrics:    metrics,
		TrainSize:  len(train),
		TestSize:   len(test),
	}, nil
}

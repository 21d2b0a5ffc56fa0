package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/adapters/bayes"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/logging"
	"github.com/spamsift/spamsift/internal/training"
)

var (
	dataPath       = flag.String("data", "data/spam.csv", "Path to the labeled CSV dataset")
	modelPath      = flag.String("model", "models/spam_model.gob", "Output path for the model artifact")
	vectorizerPath = flag.String("vectorizer", "models/vectorizer.gob", "Output path for the vectorizer artifact")
	maxFeatures    = flag.Int("max-features", 3000, "Vocabulary size for the TF-IDF vectorizer")
	alpha          = flag.Float64("alpha", 1.0, "Laplace smoothing parameter")
	testFrac       = flag.Float64("test-frac", 0.2, "Fraction of the dataset held out for evaluation")
	seed           = flag.Int64("seed", 42, "Random seed for the train/test split")
	verbose        = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog        = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	samples, err := training.LoadCSV(*dataPath)
	if err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err), zap.String("path", *dataPath))
	}
	logger.Info("Loaded dataset", zap.String("path", *dataPath), zap.Int("samples", len(samples)))

	trainer := training.NewTrainer(core.NewNormalizer(logger), logger)
	result, err := trainer.Train(samples, training.Options{
		MaxFeatures: *maxFeatures,
		Alpha:       *alpha,
		TestFrac:    *testFrac,
		Seed:        *seed,
	})
	if err != nil {
		logger.Fatal("Training failed", zap.Error(err))
	}

	for _, dir := range []string{filepath.Dir(*modelPath), filepath.Dir(*vectorizerPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create output directory", zap.Error(err), zap.String("dir", dir))
		}
	}

	if err := bayes.SaveVectorizer(*vectorizerPath, result.Vectorizer); err != nil {
		logger.Fatal("Failed to save vectorizer", zap.Error(err))
	}
	if err := bayes.SaveModel(*modelPath, result.Model); err != nil {
		logger.Fatal("Failed to save model", zap.Error(err))
	}

	fmt.Printf("Trained on %d samples, evaluated on %d\n", result.TrainSize, result.TestSize)
	fmt.Printf("%s\n", result.Metrics)
	fmt.Printf("Vectorizer saved to %s\n", *vectorizerPath)
	fmt.Printf("Model saved to %s\n", *modelPath)
}

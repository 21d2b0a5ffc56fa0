package core

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeVectorizer struct {
	features []float64
	err      error
}

func (f *fakeVectorizer) Transform(string) ([]float64, error) {
	return f.features, f.err
}

func (f *fakeVectorizer) Dimension() int {
	return len(f.features)
}

type fakeModel struct {
	label int
	probs []float64
	err   error
}

func (f *fakeModel) Predict([]float64) (int, error) {
	return f.label, f.err
}

func (f *fakeModel) PredictProba([]float64) ([]float64, error) {
	return f.probs, f.err
}

type fakeVectorClassifier struct {
	label         int
	probs         []float64
	classifyCalls int
	predictCalls  int
}

func (f *fakeVectorClassifier) Classify([]float64) (int, []float64, error) {
	f.classifyCalls++
	return f.label, f.probs, nil
}

func (f *fakeVectorClassifier) Predict([]float64) (int, error) {
	f.predictCalls++
	return f.label, nil
}

func (f *fakeVectorClassifier) PredictProba([]float64) ([]float64, error) {
	f.predictCalls++
	return f.probs, nil
}

type fakeTextModel struct {
	fakeModel
	gotText string
}

func (f *fakeTextModel) ClassifyText(_ context.Context, text string) (int, []float64, error) {
	f.gotText = text
	return f.label, f.probs, f.err
}

type fakeProvider struct {
	vectorizer Vectorizer
	model      Model
	err        error
}

func (f *fakeProvider) Get(context.Context) (Vectorizer, Model, error) {
	return f.vectorizer, f.model, f.err
}

func newTestPredictor(provider ArtifactProvider) *Predictor {
	logger := zap.NewNop()
	return NewPredictor(provider, NewNormalizer(logger), logger, 10000, "test-1.0")
}

func TestPredictSpam(t *testing.T) {
	p := newTestPredictor(&fakeProvider{
		vectorizer: &fakeVectorizer{features: []float64{1, 0}},
		model:      &fakeModel{label: LabelSpam, probs: []float64{0.08, 0.92}},
	})

	result, err := p.Predict(context.Background(), "CONGRATULATIONS!!! You've WON $1,000,000! Click http://claim.example.com NOW!")
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if !result.IsSpam {
		t.Error("IsSpam = false, want true")
	}
	if result.SpamProbability != 0.92 {
		t.Errorf("SpamProbability = %f, want 0.92", result.SpamProbability)
	}
	if result.HamProbability != 0.08 {
		t.Errorf("HamProbability = %f, want 0.08", result.HamProbability)
	}
	if result.Confidence != 0.92 {
		t.Errorf("Confidence = %f, want max probability 0.92", result.Confidence)
	}
	if result.ModelVersion != "test-1.0" {
		t.Errorf("ModelVersion = %q, want test-1.0", result.ModelVersion)
	}
	if result.ProcessingTimeMs < 0 {
		t.Errorf("ProcessingTimeMs = %f, want >= 0", result.ProcessingTimeMs)
	}
	if result.TextStats.WordCount == 0 {
		t.Error("TextStats not populated")
	}
}

func TestPredictRunsVectorClassifierOnce(t *testing.T) {
	model := &fakeVectorClassifier{label: LabelSpam, probs: []float64{0.2, 0.8}}
	p := newTestPredictor(&fakeProvider{
		vectorizer: &fakeVectorizer{features: []float64{1, 0}},
		model:      model,
	})

	result, err := p.Predict(context.Background(), "win a free prize today")
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if !result.IsSpam || result.SpamProbability != 0.8 {
		t.Errorf("result = %+v, want spam at probability 0.8", result)
	}
	if model.classifyCalls != 1 {
		t.Errorf("single-pass backend ran %d times, want 1", model.classifyCalls)
	}
	if model.predictCalls != 0 {
		t.Errorf("two-call path used %d times, want 0", model.predictCalls)
	}
}

func TestPredictProbabilityInvariants(t *testing.T) {
	distributions := [][]float64{
		{0.5, 0.5},
		{0.999, 0.001},
		{0.3, 0.7},
	}
	for _, probs := range distributions {
		label := LabelHam
		if probs[1] > probs[0] {
			label = LabelSpam
		}
		p := newTestPredictor(&fakeProvider{
			vectorizer: &fakeVectorizer{features: []float64{1}},
			model:      &fakeModel{label: label, probs: probs},
		})

		result, err := p.Predict(context.Background(), "some email text")
		if err != nil {
			t.Fatalf("Predict returned error: %v", err)
		}
		if sum := result.SpamProbability + result.HamProbability; math.Abs(sum-1) > 0.01 {
			t.Errorf("probs %v: spam+ham = %f, want ~1", probs, sum)
		}
		if result.Confidence != math.Max(probs[0], probs[1]) {
			t.Errorf("probs %v: Confidence = %f, want %f", probs, result.Confidence, math.Max(probs[0], probs[1]))
		}
		if result.IsSpam != (result.SpamProbability > result.HamProbability) {
			t.Errorf("probs %v: IsSpam = %t inconsistent with probabilities", probs, result.IsSpam)
		}
	}
}

func TestPredictDegenerateSingleProbability(t *testing.T) {
	p := newTestPredictor(&fakeProvider{
		vectorizer: &fakeVectorizer{features: []float64{1}},
		model:      &fakeModel{label: LabelSpam, probs: []float64{0.9}},
	})

	result, err := p.Predict(context.Background(), "some email text")
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if result.SpamProbability != 0.9 {
		t.Errorf("SpamProbability = %f, want 0.9", result.SpamProbability)
	}
	if math.Abs(result.HamProbability-0.1) > 1e-9 {
		t.Errorf("HamProbability = %f, want 0.1", result.HamProbability)
	}
}

func TestPredictEmptyDistribution(t *testing.T) {
	p := newTestPredictor(&fakeProvider{
		vectorizer: &fakeVectorizer{features: []float64{1}},
		model:      &fakeModel{label: LabelHam, probs: []float64{}},
	})

	_, err := p.Predict(context.Background(), "some email text")
	if !IsPredictionError(err) {
		t.Fatalf("Predict = %v, want PredictionError", err)
	}
}

func TestPredictValidationErrorNotMasked(t *testing.T) {
	p := newTestPredictor(&fakeProvider{
		vectorizer: &fakeVectorizer{features: []float64{1}},
		model:      &fakeModel{label: LabelHam, probs: []float64{0.9, 0.1}},
	})

	for _, text := range []string{"", "   ", strings.Repeat("x", 20000)} {
		_, err := p.Predict(context.Background(), text)
		if !IsValidationError(err) {
			t.Errorf("Predict(%.10q...) = %T, want ValidationError", text, err)
		}
		if IsPredictionError(err) {
			t.Errorf("Predict(%.10q...) masked validation as PredictionError", text)
		}
	}
}

func TestPredictArtifactErrorPassedThrough(t *testing.T) {
	loadErr := &ModelLoadError{Path: "/missing/model.gob", Cause: errors.New("no such file")}
	p := newTestPredictor(&fakeProvider{err: loadErr})

	_, err := p.Predict(context.Background(), "some email text")
	if !IsModelLoadError(err) {
		t.Fatalf("Predict = %v, want ModelLoadError", err)
	}
}

func TestPredictVectorizationFailure(t *testing.T) {
	p := newTestPredictor(&fakeProvider{
		vectorizer: &fakeVectorizer{err: errors.New("boom")},
		model:      &fakeModel{label: LabelHam, probs: []float64{0.9, 0.1}},
	})

	_, err := p.Predict(context.Background(), "some email text")
	var pe *PredictionError
	if !errors.As(err, &pe) {
		t.Fatalf("Predict = %v, want PredictionError", err)
	}
	if pe.Stage != "vectorization" {
		t.Errorf("Stage = %q, want vectorization", pe.Stage)
	}
}

func TestPredictUsesTextModel(t *testing.T) {
	tm := &fakeTextModel{fakeModel: fakeModel{label: LabelSpam, probs: []float64{0.2, 0.8}}}
	p := newTestPredictor(&fakeProvider{
		vectorizer: &fakeVectorizer{err: errors.New("must not be called")},
		model:      tm,
	})

	result, err := p.Predict(context.Background(), "Visit http://example.com NOW")
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if !result.IsSpam {
		t.Error("IsSpam = false, want true")
	}
	if tm.gotText != "visit URL now" {
		t.Errorf("TextModel received %q, want normalized text", tm.gotText)
	}
}

func TestPredictBatch(t *testing.T) {
	p := newTestPredictor(&fakeProvider{
		vectorizer: &fakeVectorizer{features: []float64{1}},
		model:      &fakeModel{label: LabelHam, probs: []float64{0.7, 0.3}},
	})

	items := []BatchItem{
		{ID: "0", Text: "first valid email"},
		{ID: "1", Text: ""},
		{ID: "2", Text: "second valid email"},
	}
	batch := p.PredictBatch(context.Background(), items)

	if len(batch.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(batch.Results))
	}
	if batch.Results[0].ID != "0" || batch.Results[1].ID != "2" {
		t.Errorf("result order = [%s %s], want input order [0 2]", batch.Results[0].ID, batch.Results[1].ID)
	}
	if batch.TotalProcessed != 2 {
		t.Errorf("TotalProcessed = %d, want 2", batch.TotalProcessed)
	}
	if len(batch.Dropped) != 1 || batch.Dropped[0] != "1" {
		t.Errorf("Dropped = %v, want [1]", batch.Dropped)
	}
	if batch.ProcessingTimeMs < 0 {
		t.Errorf("ProcessingTimeMs = %f, want >= 0", batch.ProcessingTimeMs)
	}
}

package bayes

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spamsift/spamsift/internal/core"
)

var (
	spamDocs = []string{
		"win free money now claim your prize",
		"free prize waiting claim now urgent",
		"urgent winner free cash claim money",
		"claim your free lottery prize money now",
		"congratulations you won free money prize",
	}
	hamDocs = []string{
		"hi john just wanted to follow up on our meeting",
		"the quarterly report is attached for review",
		"can we reschedule the meeting to tuesday",
		"thanks for sending over the meeting notes",
		"please review the attached report before tuesday",
	}
)

func fitTestPair(t *testing.T) (*TFIDFVectorizer, *MultinomialNB) {
	t.Helper()

	docs := append(append([]string{}, spamDocs...), hamDocs...)
	labels := make([]int, len(docs))
	for i := range spamDocs {
		labels[i] = core.LabelSpam
	}

	vectorizer := NewTFIDFVectorizer(0)
	if err := vectorizer.Fit(docs); err != nil {
		t.Fatalf("Fit vectorizer: %v", err)
	}

	features := make([][]float64, len(docs))
	for i, doc := range docs {
		vec, err := vectorizer.Transform(doc)
		if err != nil {
			t.Fatalf("Transform doc %d: %v", i, err)
		}
		features[i] = vec
	}

	model := NewMultinomialNB(1.0)
	if err := model.Fit(features, labels); err != nil {
		t.Fatalf("Fit model: %v", err)
	}
	return vectorizer, model
}

func classify(t *testing.T, v *TFIDFVectorizer, m *MultinomialNB, text string) (int, []float64) {
	t.Helper()

	features, err := v.Transform(text)
	if err != nil {
		t.Fatalf("Transform(%q): %v", text, err)
	}
	label, err := m.Predict(features)
	if err != nil {
		t.Fatalf("Predict(%q): %v", text, err)
	}
	probs, err := m.PredictProba(features)
	if err != nil {
		t.Fatalf("PredictProba(%q): %v", text, err)
	}
	return label, probs
}

func TestClassifySpamAndHam(t *testing.T) {
	vectorizer, model := fitTestPair(t)

	label, probs := classify(t, vectorizer, model, "congratulations you won free money claim your prize now")
	if label != core.LabelSpam {
		t.Errorf("spam text classified as %d, want %d", label, core.LabelSpam)
	}
	if probs[1] <= 0.5 {
		t.Errorf("spam probability = %f, want > 0.5", probs[1])
	}

	label, probs = classify(t, vectorizer, model, "hi just wanted to follow up on the meeting notes")
	if label != core.LabelHam {
		t.Errorf("ham text classified as %d, want %d", label, core.LabelHam)
	}
	if probs[0] <= 0.5 {
		t.Errorf("ham probability = %f, want > 0.5", probs[0])
	}
}

func TestPredictProbaSumsToOne(t *testing.T) {
	vectorizer, model := fitTestPair(t)

	for _, text := range []string{
		"free money",
		"meeting tomorrow",
		"completely unrelated words zebra quantum",
	} {
		_, probs := classify(t, vectorizer, model, text)
		if len(probs) != 2 {
			t.Fatalf("len(probs) = %d, want 2", len(probs))
		}
		if sum := probs[0] + probs[1]; math.Abs(sum-1) > 1e-9 {
			t.Errorf("probs for %q sum to %f, want 1", text, sum)
		}
	}
}

func TestVectorizerMaxFeatures(t *testing.T) {
	vectorizer := NewTFIDFVectorizer(3)
	if err := vectorizer.Fit(spamDocs); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if vectorizer.Dimension() != 3 {
		t.Errorf("Dimension = %d, want 3", vectorizer.Dimension())
	}
	// "free" and "claim" appear in every spam doc; they must survive the cap.
	if _, ok := vectorizer.Vocabulary["free"]; !ok {
		t.Errorf("most frequent term missing from capped vocabulary: %v", vectorizer.Vocabulary)
	}
}

func TestVectorizerRowsAreL2Normalized(t *testing.T) {
	vectorizer, _ := fitTestPair(t)

	features, err := vectorizer.Transform("free money claim prize")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	var norm float64
	for _, f := range features {
		norm += f * f
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
		t.Errorf("l2 norm = %f, want 1", math.Sqrt(norm))
	}
}

func TestVectorizerUnknownTokensDropped(t *testing.T) {
	vectorizer, _ := fitTestPair(t)

	features, err := vectorizer.Transform("xyzzy plugh nonexistent")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	for i, f := range features {
		if f != 0 {
			t.Errorf("feature %d = %f, want all zeros for out-of-vocabulary text", i, f)
		}
	}
}

func TestUnfittedErrors(t *testing.T) {
	if _, err := NewTFIDFVectorizer(0).Transform("text"); err == nil {
		t.Error("Transform on unfitted vectorizer = nil error")
	}
	if _, err := NewMultinomialNB(1.0).Predict([]float64{1}); err == nil {
		t.Error("Predict on unfitted model = nil error")
	}
}

func TestModelDimensionMismatch(t *testing.T) {
	_, model := fitTestPair(t)

	if _, err := model.Predict([]float64{1, 2, 3}); err == nil {
		t.Error("Predict with wrong dimension = nil error")
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	vectorizer, model := fitTestPair(t)

	dir := t.TempDir()
	vecPath := filepath.Join(dir, "vectorizer.gob")
	modelPath := filepath.Join(dir, "model.gob")

	if err := SaveVectorizer(vecPath, vectorizer); err != nil {
		t.Fatalf("SaveVectorizer: %v", err)
	}
	if err := SaveModel(modelPath, model); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	loadedVec, err := LoadVectorizer(vecPath)
	if err != nil {
		t.Fatalf("LoadVectorizer: %v", err)
	}
	loadedModel, err := LoadModel(modelPath)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}

	text := "congratulations you won free money claim your prize now"
	wantLabel, wantProbs := classify(t, vectorizer, model, text)
	gotLabel, gotProbs := classify(t, loadedVec, loadedModel, text)
	if gotLabel != wantLabel {
		t.Errorf("loaded label = %d, want %d", gotLabel, wantLabel)
	}
	for i := range wantProbs {
		if math.Abs(gotProbs[i]-wantProbs[i]) > 1e-12 {
			t.Errorf("loaded probs = %v, want %v", gotProbs, wantProbs)
		}
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := LoadVectorizer(filepath.Join(t.TempDir(), "missing.gob"))
	if !core.IsModelLoadError(err) {
		t.Errorf("LoadVectorizer on missing file = %v, want ModelLoadError", err)
	}
	_, err = LoadModel(filepath.Join(t.TempDir(), "missing.gob"))
	if !core.IsModelLoadError(err) {
		t.Errorf("LoadModel on missing file = %v, want ModelLoadError", err)
	}
}

func TestLoadCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.gob")
	if err := os.WriteFile(path, []byte("not a gob artifact at all"), 0644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	if _, err := LoadVectorizer(path); !core.IsModelLoadError(err) {
		t.Errorf("LoadVectorizer on corrupt file = %v, want ModelLoadError", err)
	}
	if _, err := LoadModel(path); !core.IsModelLoadError(err) {
		t.Errorf("LoadModel on corrupt file = %v, want ModelLoadError", err)
	}
}

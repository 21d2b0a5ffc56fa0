package bayes

import (
	"fmt"
	"math"

	"github.com/spamsift/spamsift/internal/core"
)

// MultinomialNB is a two-class Multinomial Naive Bayes model over TF-IDF
// features. All computation happens in log space; PredictProba recovers a
// normalized distribution with log-sum-exp. Fields are exported for gob
// serialization and read-only after Fit.
type MultinomialNB struct {
	ClassLogPrior  []float64
	FeatureLogProb [][]float64
	NumFeatures    int
	Alpha          float64
}

// NewMultinomialNB creates an unfitted model. alpha <= 0 falls back to
// Laplace smoothing with alpha = 1.
func NewMultinomialNB(alpha float64) *MultinomialNB {
	if alpha <= 0 {
		alpha = 1
	}
	return &MultinomialNB{Alpha: alpha}
}

// Fit estimates class priors and per-feature log probabilities from the
// training matrix. Labels must be core.LabelHam or core.LabelSpam.
func (m *MultinomialNB) Fit(x [][]float64, y []int) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("training data is empty or misaligned: %d rows, %d labels", len(x), len(y))
	}

	numFeatures := len(x[0])
	const numClasses = 2
	classCount := make([]float64, numClasses)
	featureSum := make([][]float64, numClasses)
	for c := range featureSum {
		featureSum[c] = make([]float64, numFeatures)
	}

	for i, row := range x {
		if len(row) != numFeatures {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), numFeatures)
		}
		c := y[i]
		if c != core.LabelHam && c != core.LabelSpam {
			return fmt.Errorf("row %d has unknown label %d", i, c)
		}
		classCount[c]++
		for j, val := range row {
			featureSum[c][j] += val
		}
	}
	for c, count := range classCount {
		if count == 0 {
			return fmt.Errorf("class %d has no training samples", c)
		}
	}

	m.NumFeatures = numFeatures
	m.ClassLogPrior = make([]float64, numClasses)
	m.FeatureLogProb = make([][]float64, numClasses)
	total := float64(len(x))
	for c := 0; c < numClasses; c++ {
		m.ClassLogPrior[c] = math.Log(classCount[c] / total)
		m.FeatureLogProb[c] = make([]float64, numFeatures)

		var classTotal float64
		for _, s := range featureSum[c] {
			classTotal += s
		}
		denom := classTotal + m.Alpha*float64(numFeatures)
		for j, s := range featureSum[c] {
			m.FeatureLogProb[c][j] = math.Log((s + m.Alpha) / denom)
		}
	}
	return nil
}

// jointLogLikelihood returns the unnormalized per-class log posterior.
func (m *MultinomialNB) jointLogLikelihood(features []float64) ([]float64, error) {
	if len(m.ClassLogPrior) == 0 {
		return nil, fmt.Errorf("model is not fitted")
	}
	if len(features) != m.NumFeatures {
		return nil, fmt.Errorf("feature dimension mismatch: got %d, want %d", len(features), m.NumFeatures)
	}

	jll := make([]float64, len(m.ClassLogPrior))
	for c := range jll {
		sum := m.ClassLogPrior[c]
		logProb := m.FeatureLogProb[c]
		for j, f := range features {
			if f != 0 {
				sum += f * logProb[j]
			}
		}
		jll[c] = sum
	}
	return jll, nil
}

// Predict returns the most likely class label.
func (m *MultinomialNB) Predict(features []float64) (int, error) {
	jll, err := m.jointLogLikelihood(features)
	if err != nil {
		return 0, err
	}
	best := 0
	for c := 1; c < len(jll); c++ {
		if jll[c] > jll[best] {
			best = c
		}
	}
	return best, nil
}

// PredictProba returns the normalized distribution [P(ham), P(spam)].
func (m *MultinomialNB) PredictProba(features []float64) ([]float64, error) {
	jll, err := m.jointLogLikelihood(features)
	if err != nil {
		return nil, err
	}

	maxLL := jll[0]
	for _, ll := range jll[1:] {
		if ll > maxLL {
			maxLL = ll
		}
	}
	var total float64
	probs := make([]float64, len(jll))
	for c, ll := range jll {
		probs[c] = math.Exp(ll - maxLL)
		total += probs[c]
	}
	for c := range probs {
		probs[c] /= total
	}
	return probs, nil
}

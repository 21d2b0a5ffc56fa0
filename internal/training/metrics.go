package training

import (
	"fmt"

	"github.com/spamsift/spamsift/internal/core"
)

// Metrics holds binary classification scores with spam as the positive
// class.
type Metrics struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64

	TruePositives  int
	TrueNegatives  int
	FalsePositives int
	FalseNegatives int
}

// Evaluate scores the artifact pair on a labeled holdout set.
func Evaluate(vectorizer core.Vectorizer, model core.Model, samples []Sample) (Metrics, error) {
	var m Metrics
	for i, s := range samples {
		features, err := vectorizer.Transform(s.Text)
		if err != nil {
			return m, fmt.Errorf("vectorizing holdout sample %d: %w", i, err)
		}
		predicted, err := model.Predict(features)
		if err != nil {
			return m, fmt.Errorf("predicting holdout sample %d: %w", i, err)
		}

		switch {
		case predicted == 1 && s.Label == 1:
			m.TruePositives++
		case predicted == 0 && s.Label == 0:
			m.TrueNegatives++
		case predicted == 1 && s.Label == 0:
			m.FalsePositives++
		default:
			m.FalseNegatives++
		}
	}

	total := len(samples)
	if total > 0 {
		m.Accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}
	if m.TruePositives+m.FalsePositives > 0 {
		m.Precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}
	if m.TruePositives+m.FalseNegatives > 0 {
		m.Recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m, nil
}

// String renders the metrics for CLI output.
func (m Metrics) String() string {
	return fmt.Sprintf(
		"accuracy=%.4f precision=%.4f recall=%.4f f1=%.4f (tp=%d tn=%d fp=%d fn=%d)",
		m.Accuracy, m.Precision, m.Recall, m.F1,
		m.TruePositives, m.TrueNegatives, m.FalsePositives, m.FalseNegatives,
	)
}

package llm

import "errors"

var errTextOnly = errors.New("remote model classifies text, not feature vectors")

// remoteModel is embedded by provider clients so they satisfy the Model
// port; the predictor always reaches them through the TextModel capability,
// so the vector methods only guard against misuse.
type remoteModel struct{}

func (remoteModel) Predict([]float64) (int, error) {
	return 0, errTextOnly
}

func (remoteModel) PredictProba([]float64) ([]float64, error) {
	return nil, errTextOnly
}

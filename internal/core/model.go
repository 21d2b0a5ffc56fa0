package core

// TextStats describes the original (pre-normalization) email text
type TextStats struct {
	WordCount      int     `json:"word_count"`
	CharCount      int     `json:"char_count"`
	AvgWordLength  float64 `json:"avg_word_length"`
	UppercaseRatio float64 `json:"uppercase_ratio"`
}

// Classification is the result of classifying one email
type Classification struct {
	IsSpam           bool      `json:"is_spam"`
	Confidence       float64   `json:"confidence"`
	SpamProbability  float64   `json:"spam_probability"`
	HamProbability   float64   `json:"ham_probability"`
	ProcessingTimeMs float64   `json:"processing_time_ms"`
	ModelVersion     string    `json:"model_version"`
	TextStats        TextStats `json:"text_stats"`
}

// BatchItem is one email in a batch request
type BatchItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BatchItemResult pairs an item id with its classification
type BatchItemResult struct {
	ID     string          `json:"id"`
	Result *Classification `json:"result"`
}

// BatchResult is the outcome of a batch run. Items that failed are absent
// from Results and listed in Dropped, so callers can reconcile
// TotalProcessed against the original request size.
type BatchResult struct {
	Results          []BatchItemResult `json:"results"`
	Dropped          []string          `json:"dropped,omitempty"`
	TotalProcessed   int               `json:"total_processed"`
	ProcessingTimeMs float64           `json:"processing_time_ms"`
}

// Class labels used by the classifier backends. Index 0 of a probability
// distribution is always ham, index 1 is spam.
const (
	LabelHam  = 0
	LabelSpam = 1
)

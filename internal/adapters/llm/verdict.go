// Package llm implements the remote classification engine: provider-hosted
// language models asked for a strict-JSON spam verdict. Each provider
// client satisfies the TextModel capability, so the predictor hands it
// normalized text instead of a feature vector.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spamsift/spamsift/internal/core"
)

// verdict is the structured response every provider is prompted to return.
type verdict struct {
	IsSpam          bool    `json:"is_spam"`
	SpamProbability float64 `json:"spam_probability"`
	HamProbability  float64 `json:"ham_probability"`
}

// classifyPrompt asks for probabilities over exactly the two classes the
// pipeline understands.
const classifyPrompt = `You are a spam detection system. Classify the following email text as spam or legitimate (ham).
Respond with a JSON object containing:
- is_spam: boolean (true if spam, false if not)
- spam_probability: number between 0 and 1
- ham_probability: number between 0 and 1 (the two probabilities must sum to 1)

Email text:
%s

Respond only with the JSON object and nothing else.`

// parseVerdict decodes a provider response, tolerating prose around the
// JSON object, and converts it into a (label, [P(ham), P(spam)]) pair.
func parseVerdict(responseText string) (int, []float64, error) {
	var v verdict
	if err := json.Unmarshal([]byte(responseText), &v); err != nil {
		start := strings.Index(responseText, "{")
		end := strings.LastIndex(responseText, "}")
		if start < 0 || end <= start {
			return 0, nil, fmt.Errorf("no JSON object in model response: %w", err)
		}
		if err := json.Unmarshal([]byte(responseText[start:end+1]), &v); err != nil {
			return 0, nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
		}
	}

	spam := clamp01(v.SpamProbability)
	ham := clamp01(v.HamProbability)
	if spam == 0 && ham == 0 {
		// Model gave a label without probabilities; fall back to certainty.
		if v.IsSpam {
			spam = 1
		} else {
			ham = 1
		}
	}
	if total := spam + ham; total > 0 {
		spam /= total
		ham /= total
	}

	label := core.LabelHam
	if v.IsSpam || spam > ham {
		label = core.LabelSpam
	}
	return label, []float64{ham, spam}, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// textVectorizer satisfies the Vectorizer port for remote engines, which
// consume normalized text directly; its feature space is empty.
type textVectorizer struct{}

// NewTextVectorizer returns the vectorizer stand-in paired with remote models.
func NewTextVectorizer() core.Vectorizer {
	return textVectorizer{}
}

func (textVectorizer) Transform(string) ([]float64, error) { return []float64{}, nil }
func (textVectorizer) Dimension() int                      { return 0 }

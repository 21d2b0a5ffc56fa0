// Package bayes implements the default classification engine: a TF-IDF
// vectorizer and a Multinomial Naive Bayes model, serialized to disk as gob
// artifacts by the offline trainer and loaded back at startup.
package bayes

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches word tokens of at least two characters, mirroring
// the tokenization the artifacts were trained with.
var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// TFIDFVectorizer maps normalized text into a fixed term-frequency space
// weighted by smoothed inverse document frequency. Rows are l2-normalized.
// Fields are exported for gob serialization; the struct is read-only after
// Fit and safe for concurrent Transform calls.
type TFIDFVectorizer struct {
	Vocabulary  map[string]int
	IDF         []float64
	MaxFeatures int
}

// NewTFIDFVectorizer creates an unfitted vectorizer. maxFeatures <= 0 means
// no cap on vocabulary size.
func NewTFIDFVectorizer(maxFeatures int) *TFIDFVectorizer {
	return &TFIDFVectorizer{MaxFeatures: maxFeatures}
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Fit builds the vocabulary and idf weights from the training corpus. When
// MaxFeatures is set, the most frequent terms across the corpus win; ties
// break alphabetically so fitting is deterministic.
func (v *TFIDFVectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return fmt.Errorf("cannot fit vectorizer on an empty corpus")
	}

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range tokenize(doc) {
			termFreq[tok]++
			if !seen[tok] {
				docFreq[tok]++
				seen[tok] = true
			}
		}
	}
	if len(termFreq) == 0 {
		return fmt.Errorf("corpus produced no tokens")
	}

	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if termFreq[terms[i]] != termFreq[terms[j]] {
				return termFreq[terms[i]] > termFreq[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		v.Vocabulary[term] = i
		// Smoothed idf, as if every term appeared in one extra document.
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	return nil
}

// Transform converts text into a feature vector in the fitted space. Tokens
// outside the vocabulary are dropped.
func (v *TFIDFVectorizer) Transform(text string) ([]float64, error) {
	if len(v.Vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer is not fitted")
	}

	features := make([]float64, len(v.IDF))
	for _, tok := range tokenize(text) {
		if idx, ok := v.Vocabulary[tok]; ok {
			features[idx] += v.IDF[idx]
		}
	}

	var norm float64
	for _, f := range features {
		norm += f * f
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range features {
			features[i] /= norm
		}
	}
	return features, nil
}

// Dimension returns the size of the fitted feature space.
func (v *TFIDFVectorizer) Dimension() int {
	return len(v.IDF)
}

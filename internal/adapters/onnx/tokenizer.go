package onnx

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// WordPieceTokenizer implements a minimal BERT-compatible tokenizer built
// from a vocab.txt file. It doubles as the engine's vectorizer: token ids
// and the attention mask are the feature vector.
type WordPieceTokenizer struct {
	vocab        map[string]int64
	clsID        int64
	sepID        int64
	padID        int64
	unkID        int64
	continuation string
	seqLen       int
}

// LoadWordPieceTokenizer builds the tokenizer from vocab.txt.
func LoadWordPieceTokenizer(path string, seqLen int) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		vocab[token] = idx
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocab is empty")
	}

	return &WordPieceTokenizer{
		vocab:        vocab,
		clsID:        vocab["[CLS]"],
		sepID:        vocab["[SEP]"],
		padID:        vocab["[PAD]"],
		unkID:        vocab["[UNK]"],
		continuation: "##",
		seqLen:       seqLen,
	}, nil
}

// Encode converts text into token ids and an attention mask of length seqLen.
func (t *WordPieceTokenizer) Encode(text string) ([]int64, []int64) {
	tokens := []int64{t.clsID}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		tokens = append(tokens, t.wordPiece(w)...)
		if len(tokens) >= t.seqLen-1 {
			tokens = tokens[:t.seqLen-1]
			break
		}
	}
	tokens = append(tokens, t.sepID)

	attn := make([]int64, t.seqLen)
	for i := 0; i < len(tokens); i++ {
		attn[i] = 1
	}
	for len(tokens) < t.seqLen {
		tokens = append(tokens, t.padID)
	}
	return tokens, attn
}

// wordPiece greedily splits a word into the longest vocabulary pieces.
func (t *WordPieceTokenizer) wordPiece(token string) []int64 {
	if id, ok := t.vocab[token]; ok {
		return []int64{id}
	}

	var pieces []int64
	start := 0
	for start < len(token) {
		end := len(token)
		matched := false
		for end > start {
			sub := token[start:end]
			if start > 0 {
				sub = t.continuation + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, id)
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			return []int64{t.unkID}
		}
	}
	if len(pieces) == 0 {
		return []int64{t.unkID}
	}
	return pieces
}

// Transform implements the Vectorizer port: the feature vector is the
// token ids followed by the attention mask.
func (t *WordPieceTokenizer) Transform(text string) ([]float64, error) {
	ids, attn := t.Encode(text)
	features := make([]float64, 0, 2*t.seqLen)
	for _, id := range ids {
		features = append(features, float64(id))
	}
	for _, m := range attn {
		features = append(features, float64(m))
	}
	return features, nil
}

// Dimension returns the feature vector length (ids plus mask).
func (t *WordPieceTokenizer) Dimension() int {
	return 2 * t.seqLen
}

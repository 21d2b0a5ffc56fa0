// Package onnx implements the transformer classification engine: a
// pretrained binary sequence-classification model executed locally through
// the ONNX runtime, with a WordPiece tokenizer as its vectorizer.
package onnx

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/core"
)

// Classifier wraps the ONNX session. Session inputs/outputs are reused
// between calls, so Run is serialized with a mutex; the model weights
// themselves are read-only.
type Classifier struct {
	session       *ort.AdvancedSession
	seqLen        int
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	output        *ort.Tensor[float32]
	logger        *zap.Logger

	mu sync.Mutex
}

// LoadBundle loads the model and tokenizer from a bundle directory laid
// out as model.onnx + vocab.txt. The tokenizer is returned as the engine's
// vectorizer.
func LoadBundle(bundleDir string, seqLen int, logger *zap.Logger) (*WordPieceTokenizer, *Classifier, error) {
	if bundleDir == "" {
		return nil, nil, &core.ModelLoadError{Path: bundleDir, Cause: fmt.Errorf("transformer bundle dir is empty")}
	}
	if seqLen <= 0 {
		seqLen = 256
	}

	modelPath := filepath.Join(bundleDir, "model.onnx")
	vocabPath := filepath.Join(bundleDir, "vocab.txt")

	if _, err := os.Stat(modelPath); err != nil {
		return nil, nil, &core.ModelLoadError{Path: modelPath, Cause: err}
	}

	if libPath := resolveSharedLibraryPath(bundleDir); libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	} else {
		return nil, nil, &core.ModelLoadError{
			Path:  bundleDir,
			Cause: fmt.Errorf("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime"),
		}
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, nil, &core.ModelLoadError{Path: modelPath, Cause: fmt.Errorf("initialize onnxruntime: %w", err)}
		}
	}

	tokenizer, err := LoadWordPieceTokenizer(vocabPath, seqLen)
	if err != nil {
		return nil, nil, &core.ModelLoadError{Path: vocabPath, Cause: err}
	}

	inputShape := ort.NewShape(1, int64(seqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, nil, &core.ModelLoadError{Path: modelPath, Cause: fmt.Errorf("allocate input_ids tensor: %w", err)}
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, nil, &core.ModelLoadError{Path: modelPath, Cause: fmt.Errorf("allocate attention_mask tensor: %w", err)}
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		return nil, nil, &core.ModelLoadError{Path: modelPath, Cause: fmt.Errorf("allocate output tensor: %w", err)}
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, nil, &core.ModelLoadError{Path: modelPath, Cause: fmt.Errorf("create onnx session: %w", err)}
	}

	classifier := &Classifier{
		session:       session,
		seqLen:        seqLen,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		output:        output,
		logger:        logger,
	}
	return tokenizer, classifier, nil
}

// run executes the session on a feature vector of ids followed by mask.
func (c *Classifier) run(features []float64) ([]float32, error) {
	if len(features) != 2*c.seqLen {
		return nil, fmt.Errorf("feature dimension mismatch: got %d, want %d", len(features), 2*c.seqLen)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids := c.inputIDs.GetData()
	mask := c.attentionMask.GetData()
	for i := 0; i < c.seqLen; i++ {
		ids[i] = int64(features[i])
		mask[i] = int64(features[c.seqLen+i])
	}

	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	logits := make([]float32, 2)
	copy(logits, c.output.GetData())
	return logits, nil
}

// Classify runs the session once and derives both the label and the
// softmaxed [P(ham), P(spam)] distribution from the logits.
func (c *Classifier) Classify(features []float64) (int, []float64, error) {
	logits, err := c.run(features)
	if err != nil {
		return 0, nil, err
	}

	maxLogit := math.Max(float64(logits[0]), float64(logits[1]))
	expHam := math.Exp(float64(logits[0]) - maxLogit)
	expSpam := math.Exp(float64(logits[1]) - maxLogit)
	total := expHam + expSpam
	probs := []float64{expHam / total, expSpam / total}

	label := core.LabelHam
	if logits[1] > logits[0] {
		label = core.LabelSpam
	}
	return label, probs, nil
}

// Predict returns the predicted class label.
func (c *Classifier) Predict(features []float64) (int, error) {
	label, _, err := c.Classify(features)
	return label, err
}

// PredictProba softmaxes the two logits into [P(ham), P(spam)].
func (c *Classifier) PredictProba(features []float64) ([]float64, error) {
	_, probs, err := c.Classify(features)
	return probs, err
}

// Close releases the session and its tensors.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	for _, t := range []interface{ Destroy() error }{c.inputIDs, c.attentionMask, c.output} {
		if t != nil {
			t.Destroy()
		}
	}
	return nil
}

// resolveSharedLibraryPath locates the platform onnxruntime shared library.
// ONNXRUNTIME_SHARED_LIBRARY_PATH wins; otherwise common names and
// locations are probed.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.so",
		"onnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/usr/local/lib",
		"/usr/lib",
		"/opt/homebrew/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

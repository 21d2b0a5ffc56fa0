package bayes

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/spamsift/spamsift/internal/core"
)

// Artifact files start with a magic header and format version so a corrupt
// or foreign file fails fast instead of producing a half-decoded object.
var artifactMagic = []byte("SPAMSIFT")

const artifactFormatVersion byte = 1

func writeArtifact(path string, payload interface{}) error {
	var buf bytes.Buffer
	buf.Write(artifactMagic)
	buf.WriteByte(artifactFormatVersion)
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

func readArtifact(path string, payload interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return &core.ModelLoadError{Path: path, Cause: err}
	}
	defer f.Close()

	header := make([]byte, len(artifactMagic)+1)
	if _, err := io.ReadFull(f, header); err != nil {
		return &core.ModelLoadError{Path: path, Cause: fmt.Errorf("truncated artifact: %w", err)}
	}
	if !bytes.Equal(header[:len(artifactMagic)], artifactMagic) {
		return &core.ModelLoadError{Path: path, Cause: fmt.Errorf("not a spamsift artifact")}
	}
	if header[len(artifactMagic)] != artifactFormatVersion {
		return &core.ModelLoadError{Path: path, Cause: fmt.Errorf("unsupported artifact format version %d", header[len(artifactMagic)])}
	}
	if err := gob.NewDecoder(f).Decode(payload); err != nil {
		return &core.ModelLoadError{Path: path, Cause: fmt.Errorf("corrupted artifact: %w", err)}
	}
	return nil
}

// SaveVectorizer persists a fitted vectorizer.
func SaveVectorizer(path string, v *TFIDFVectorizer) error {
	return writeArtifact(path, v)
}

// LoadVectorizer reads a vectorizer artifact, failing with a
// core.ModelLoadError if the file is missing, corrupt, or empty.
func LoadVectorizer(path string) (*TFIDFVectorizer, error) {
	var v TFIDFVectorizer
	if err := readArtifact(path, &v); err != nil {
		return nil, err
	}
	if len(v.Vocabulary) == 0 || len(v.IDF) == 0 {
		return nil, &core.ModelLoadError{Path: path, Cause: fmt.Errorf("vectorizer artifact is empty")}
	}
	return &v, nil
}

// SaveModel persists a fitted model.
func SaveModel(path string, m *MultinomialNB) error {
	return writeArtifact(path, m)
}

// LoadModel reads a model artifact, failing with a core.ModelLoadError if
// the file is missing, corrupt, or empty.
func LoadModel(path string) (*MultinomialNB, error) {
	var m MultinomialNB
	if err := readArtifact(path, &m); err != nil {
		return nil, err
	}
	if len(m.ClassLogPrior) == 0 || len(m.FeatureLogProb) == 0 {
		return nil, &core.ModelLoadError{Path: path, Cause: fmt.Errorf("model artifact is empty")}
	}
	return &m, nil
}

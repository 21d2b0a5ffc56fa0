// Package training implements offline model training: dataset loading,
// TF-IDF plus Naive Bayes fitting, and holdout evaluation.
package training

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Sample is one labeled message.
type Sample struct {
	Text  string
	Label int
}

// LoadCSV reads a labeled dataset from a CSV file. The label and text
// columns are found by header name ("v1"/"v2" or "Category"/"Message");
// without a recognized header the first two columns are used. Rows with a
// missing label or empty text are dropped. Files that are not valid UTF-8
// are retried as Latin-1, which is how these corpora usually ship.
func LoadCSV(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	var r io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}

	samples, err := parseCSV(r)
	if err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	return samples, nil
}

func parseCSV(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	labelCol, textCol, hasHeader := findColumns(records[0])
	rows := records
	if hasHeader {
		rows = records[1:]
	}

	samples := make([]Sample, 0, len(rows))
	for _, row := range rows {
		if len(row) <= labelCol || len(row) <= textCol {
			continue
		}
		label, ok := parseLabel(row[labelCol])
		if !ok {
			continue
		}
		text := strings.TrimSpace(row[textCol])
		if text == "" {
			continue
		}
		samples = append(samples, Sample{Text: text, Label: label})
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("dataset contains no usable rows")
	}
	return samples, nil
}

// findColumns locates the label and text columns from the header row.
func findColumns(header []string) (labelCol, textCol int, hasHeader bool) {
	labelCol, textCol = 0, 1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "v1", "category", "label":
			labelCol = i
			hasHeader = true
		case "v2", "message", "text":
			textCol = i
			hasHeader = true
		}
	}
	return labelCol, textCol, hasHeader
}

func parseLabel(value string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "spam", "1":
		return 1, true
	case "ham", "0":
		return 0, true
	default:
		return 0, false
	}
}

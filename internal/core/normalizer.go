package core

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Placeholder tokens substituted into normalized text. They are kept
// verbatim (never lowercased) so that normalizing already-normalized text
// is a no-op.
const (
	TokenURL   = "URL"
	TokenEmail = "EMAIL"
	TokenPhone = "PHONE"
)

var (
	urlPattern   = regexp.MustCompile(`https?://\S+|www\.\S+`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\d{10}|\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`)
	tokenPattern = regexp.MustCompile(`\b(?:` + TokenURL + `|` + TokenEmail + `|` + TokenPhone + `)\b`)
)

// Normalizer cleans raw email text into the form the vectorizer was trained
// on and derives structural statistics from the original text.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a new Normalizer
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Clean normalizes raw email text: lowercase, URL/EMAIL/PHONE placeholder
// substitution, whitespace collapse. It is total: cleaning is best-effort
// and an internal failure returns the input unchanged rather than failing
// the prediction.
func (n *Normalizer) Clean(text string) (cleaned string) {
	if text == "" {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			if n.logger != nil {
				n.logger.Error("Text cleaning failed, returning input unchanged",
					zap.Any("panic", r))
			}
			cleaned = text
		}
	}()

	cleaned = lowercasePreservingTokens(text)
	cleaned = urlPattern.ReplaceAllString(cleaned, TokenURL)
	cleaned = emailPattern.ReplaceAllString(cleaned, TokenEmail)
	cleaned = phonePattern.ReplaceAllString(cleaned, TokenPhone)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return cleaned
}

// lowercasePreservingTokens lowercases text while leaving placeholder
// tokens from a previous cleaning pass intact.
func lowercasePreservingTokens(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range tokenPattern.FindAllStringIndex(text, -1) {
		b.WriteString(strings.ToLower(text[last:loc[0]]))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strings.ToLower(text[last:]))
	return b.String()
}

// Stats computes statistics over the original, pre-normalization text.
func (n *Normalizer) Stats(text string) TextStats {
	words := strings.Fields(text)
	wordCount := len(words)
	charCount := utf8.RuneCountInString(text)

	stats := TextStats{
		WordCount: wordCount,
		CharCount: charCount,
	}
	if wordCount > 0 {
		stats.AvgWordLength = float64(charCount) / float64(wordCount)
	}
	if charCount > 0 {
		upper := 0
		for _, r := range text {
			if unicode.IsUpper(r) {
				upper++
			}
		}
		stats.UppercaseRatio = float64(upper) / float64(charCount) * 100
	}
	return stats
}

// Validate checks raw email text against the input constraints. It runs
// before normalization on every predict call.
func (n *Normalizer) Validate(text string, maxLength int) error {
	if strings.TrimSpace(text) == "" {
		return NewValidationError("email text cannot be empty")
	}
	if utf8.RuneCountInString(text) > maxLength {
		return NewValidationError("email text too long (max %d characters)", maxLength)
	}
	if strings.ContainsRune(text, 0) {
		return NewValidationError("email text contains invalid characters")
	}
	return nil
}

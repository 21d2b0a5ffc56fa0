package core

import (
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestCleanReplacesURLs(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"http url", "Check this out http://example.com/spam", "check this out URL"},
		{"https url", "Visit https://secure.example.com now", "visit URL now"},
		{"www url", "go to www.example.com today", "go to URL today"},
		{"email address", "Contact me at spam@example.com", "contact me at EMAIL"},
		{"phone ten digits", "Call 5551234567 now", "call PHONE now"},
		{"phone with separators", "Call 555-123-4567 now", "call PHONE now"},
		{"uppercase", "FREE MONEY NOW", "free money now"},
		{"whitespace collapse", "hello   \t world \n again", "hello world again"},
		{"empty", "", ""},
		{"standalone placeholder kept", "visit URL now", "visit URL now"},
		{"placeholder inside word lowercased", "TELEPHONED me", "telephoned me"},
		{"placeholder prefix lowercased", "EMAILED you twice", "emailed you twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	inputs := []string{
		"Check this out http://example.com/spam",
		"Contact me at spam@example.com or call 555-123-4567",
		"FREE MONEY visit www.win.example.com NOW",
		"plain text with no tokens at all",
	}
	for _, input := range inputs {
		once := n.Clean(input)
		twice := n.Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestStats(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	stats := n.Stats("Hello WORLD")
	if stats.WordCount != 2 {
		t.Errorf("WordCount = %d, want 2", stats.WordCount)
	}
	if stats.CharCount != 11 {
		t.Errorf("CharCount = %d, want 11", stats.CharCount)
	}
	wantAvg := 11.0 / 2.0
	if math.Abs(stats.AvgWordLength-wantAvg) > 1e-9 {
		t.Errorf("AvgWordLength = %f, want %f", stats.AvgWordLength, wantAvg)
	}
	// 6 uppercase runes out of 11.
	wantUpper := 6.0 / 11.0 * 100
	if math.Abs(stats.UppercaseRatio-wantUpper) > 1e-9 {
		t.Errorf("UppercaseRatio = %f, want %f", stats.UppercaseRatio, wantUpper)
	}
}

func TestStatsEmptyText(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	stats := n.Stats("")
	if stats.WordCount != 0 || stats.CharCount != 0 || stats.AvgWordLength != 0 || stats.UppercaseRatio != 0 {
		t.Errorf("Stats(\"\") = %+v, want all zeros", stats)
	}
}

func TestValidate(t *testing.T) {
	n := NewNormalizer(zap.NewNop())
	const maxLength = 10000

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"valid", "hello world", ""},
		{"empty", "", "email text cannot be empty"},
		{"whitespace only", "   \t\n  ", "email text cannot be empty"},
		{"too long", strings.Repeat("a", 20000), "email text too long (max 10000 characters)"},
		{"null byte", "hello\x00world", "email text contains invalid characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := n.Validate(tt.input, maxLength)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate(%q) = %v, want nil", tt.input, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate(%q) = nil, want error %q", tt.input, tt.wantErr)
			}
			if !IsValidationError(err) {
				t.Errorf("Validate(%q) returned %T, want ValidationError", tt.input, err)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("Validate(%q) = %q, want %q", tt.input, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateLengthCountsRunes(t *testing.T) {
	n := NewNormalizer(zap.NewNop())

	// 100 multi-byte runes are well under a 200-rune limit even though the
	// byte length exceeds it.
	text := strings.Repeat("é", 100)
	if err := n.Validate(text, 200); err != nil {
		t.Errorf("Validate multi-byte text = %v, want nil", err)
	}
	if err := n.Validate(text, 99); err == nil {
		t.Error("Validate = nil, want too-long error")
	}
}

package smtp

import (
	"testing"

	"go.uber.org/zap"
)

func TestWhitelistContains(t *testing.T) {
	w := NewWhitelist([]string{"Example.com", " trusted.org "}, zap.NewNop())

	tests := []struct {
		from string
		want bool
	}{
		{"alice@example.com", true},
		{"bob@EXAMPLE.COM", true},
		{"carol@trusted.org", true},
		{"mallory@evil.com", false},
		{"not-an-address", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := w.Contains(tt.from); got != tt.want {
			t.Errorf("Contains(%q) = %t, want %t", tt.from, got, tt.want)
		}
	}
}

func TestWhitelistEmpty(t *testing.T) {
	w := NewWhitelist(nil, zap.NewNop())
	if w.Contains("alice@example.com") {
		t.Error("empty whitelist matched a sender")
	}
}

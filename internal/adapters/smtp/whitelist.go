package smtp

import (
	"strings"

	"go.uber.org/zap"
)

// Whitelist checks sender domains that bypass classification entirely.
type Whitelist struct {
	domains []string
	logger  *zap.Logger
}

// NewWhitelist creates a whitelist checker from configured domains.
func NewWhitelist(domains []string, logger *zap.Logger) *Whitelist {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized sender whitelist", zap.Strings("domains", normalized))
	}

	return &Whitelist{domains: normalized, logger: logger}
}

// Contains reports whether the sender's domain is whitelisted.
func (w *Whitelist) Contains(from string) bool {
	if len(w.domains) == 0 {
		return false
	}

	parts := strings.Split(from, "@")
	if len(parts) != 2 {
		return false
	}
	domain := strings.ToLower(parts[1])

	for _, whitelisted := range w.domains {
		if whitelisted == domain {
			if w.logger != nil {
				w.logger.Debug("Sender domain is whitelisted",
					zap.String("domain", domain),
					zap.String("email", from))
			}
			return true
		}
	}

	return false
}

// Package ports defines the interfaces for the application's inbound surfaces.
package ports

// Ingress is a server surface that accepts classification requests
// (HTTP API, SMTP filter).
type Ingress interface {
	// Start starts the server. It must not block.
	Start() error

	// Stop shuts the server down.
	Stop() error
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/adapters/smtp"
	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/di"
	"github.com/spamsift/spamsift/internal/ports"
	"github.com/spamsift/spamsift/internal/registry"
	"github.com/spamsift/spamsift/internal/server"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	reg *registry.Registry,
	httpServer *server.Server,
	smtpFilter *smtp.Filter,
	cache core.ResultCache,
) error {
	defer logger.Sync()

	// Load the model up front so a broken deployment fails fast. The
	// registry keeps retrying on demand, so startup survives a missing
	// artifact: predictions return service-unavailable until it appears.
	if err := reg.Load(context.Background()); err != nil {
		logger.Warn("Model not loaded at startup, will retry on demand", zap.Error(err))
	}

	ingresses := []ports.Ingress{httpServer}
	if cfg.GetBool("smtp.enabled") {
		ingresses = append(ingresses, smtpFilter)
	}

	for _, ingress := range ingresses {
		if err := ingress.Start(); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
			return err
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	for _, ingress := range ingresses {
		if err := ingress.Stop(); err != nil {
			logger.Error("Failed to stop server", zap.Error(err))
		}
	}

	// Release model artifacts (native sessions, remote clients)
	if err := reg.Close(); err != nil {
		logger.Error("Failed to close model artifacts", zap.Error(err))
	}

	// Stop the cache if needed
	if stopper, ok := cache.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}

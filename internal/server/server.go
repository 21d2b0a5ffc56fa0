// Package server exposes the classification service over HTTP.
package server

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/registry"
)

// requestIDKey is the fiber locals key carrying the request ID.
const requestIDKey = "request_id"

// requestID returns the request's correlation ID for log fields.
func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Server is the HTTP ingress. It owns the fiber app and translates service
// errors into status codes: validation failures are 400, unavailable model
// artifacts are 503, everything else is a generic 500.
type Server struct {
	app      *fiber.App
	service  *core.ClassifierService
	registry *registry.Registry
	cfg      *config.Config
	logger   *zap.Logger

	listenAddr     string
	apiKey         string
	batchLimit     int
	maxUploadBytes int64
}

// NewServer creates the HTTP server with its middleware and routes.
func NewServer(
	service *core.ClassifierService,
	reg *registry.Registry,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		service:        service,
		registry:       reg,
		cfg:            cfg,
		logger:         logger,
		listenAddr:     cfg.GetString("server.listen_address"),
		apiKey:         cfg.GetString("server.api_key"),
		batchLimit:     cfg.GetInt("server.batch_limit"),
		maxUploadBytes: int64(cfg.GetInt("server.max_upload_bytes")),
	}

	s.app = fiber.New(fiber.Config{
		AppName:   "spamsift",
		BodyLimit: int(s.maxUploadBytes) + 64*1024,
	})
	s.registerMiddleware()
	s.registerRoutes()
	return s
}

func (s *Server) registerMiddleware() {
	s.app.Use(recover.New())
	s.app.Use(func(c *fiber.Ctx) error {
		reqID := c.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Locals(requestIDKey, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	})
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.GetString("server.cors_origins"),
		AllowHeaders: "Origin, Content-Type, Accept, X-API-Key",
	}))

	window, err := s.cfg.GetDuration("server.rate_limit.window")
	if err != nil || window <= 0 {
		window = time.Minute
	}
	s.app.Use(limiter.New(limiter.Config{
		Max:        s.cfg.GetInt("server.rate_limit.max"),
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Error:   "rate_limited",
				Message: "too many requests, slow down",
			})
		},
	}))
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api/v1", s.requireAPIKey)
	api.Post("/classify", s.handleClassify)
	api.Post("/classify/batch", s.handleClassifyBatch)
	api.Post("/classify/upload", s.handleClassifyUpload)
	api.Get("/info", s.handleInfo)
	api.Post("/model/reload", s.handleModelReload)
}

// requireAPIKey checks the static X-API-Key header. A missing key is 401,
// a wrong one is 403.
func (s *Server) requireAPIKey(c *fiber.Ctx) error {
	key := c.Get("X-API-Key")
	if key == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "missing X-API-Key header",
		})
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "invalid API key",
		})
	}
	return c.Next()
}

// Start starts listening in a background goroutine.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", zap.String("address", s.listenAddr))
	go func() {
		if err := s.app.Listen(s.listenAddr); err != nil {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	if s.app != nil {
		return s.app.ShutdownWithTimeout(10 * time.Second)
	}
	return nil
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// writeError maps a service error onto the uniform error body. Internal
// details never leak to callers.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	var validationErr *core.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Error(),
		})
	}

	var loadErr *core.ModelLoadError
	if errors.As(err, &loadErr) {
		s.logger.Error("Model unavailable",
			zap.Error(err),
			zap.String("request_id", requestID(c)))
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "model_unavailable",
			Message: "classification model is not available",
		})
	}

	s.logger.Error("Classification failed",
		zap.Error(err),
		zap.String("request_id", requestID(c)))
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "classification failed",
	})
}

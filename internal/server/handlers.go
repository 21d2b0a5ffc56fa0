package server

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/fileparse"
)

// handleClassify classifies a single email text.
func (s *Server) handleClassify(c *fiber.Ctx) error {
	var req ClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be JSON with a \"text\" field",
		})
	}

	result, err := s.service.Classify(c.UserContext(), req.Text)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(result)
}

// handleClassifyBatch classifies up to the configured limit of texts in one
// request. Items that fail are dropped from the results, not errors.
func (s *Server) handleClassifyBatch(c *fiber.Ctx) error {
	var req BatchClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be JSON with an \"emails\" array",
		})
	}
	if len(req.Emails) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "emails array cannot be empty",
		})
	}
	if len(req.Emails) > s.batchLimit {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: fmt.Sprintf("too many emails in batch (max %d)", s.batchLimit),
		})
	}

	items := make([]core.BatchItem, len(req.Emails))
	for i, text := range req.Emails {
		items[i] = core.BatchItem{ID: fmt.Sprintf("%d", i), Text: text}
	}

	batch := s.service.ClassifyBatch(c.UserContext(), items)

	resp := BatchResponse{
		Results:          make([]BatchItemResponse, 0, len(batch.Results)),
		Dropped:          batch.Dropped,
		TotalProcessed:   batch.TotalProcessed,
		ProcessingTimeMs: batch.ProcessingTimeMs,
	}
	for _, item := range batch.Results {
		resp.Results = append(resp.Results, BatchItemResponse{ID: item.ID, Result: item.Result})
	}
	return c.JSON(resp)
}

// handleClassifyUpload extracts text from an uploaded file (.txt, .eml or
// .pdf) and classifies it.
func (s *Server) handleClassifyUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "multipart form must contain a \"file\" field",
		})
	}
	if fileHeader.Size > s.maxUploadBytes {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: fmt.Sprintf("file too large (max %d bytes)", s.maxUploadBytes),
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("Failed to open uploaded file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "failed to read uploaded file",
		})
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxUploadBytes+1))
	if err != nil {
		s.logger.Error("Failed to read uploaded file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "failed to read uploaded file",
		})
	}
	if int64(len(data)) > s.maxUploadBytes {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: fmt.Sprintf("file too large (max %d bytes)", s.maxUploadBytes),
		})
	}

	text, err := fileparse.FromUpload(fileHeader.Filename, data)
	if err != nil {
		return s.writeError(c, err)
	}

	result, err := s.service.Classify(c.UserContext(), text)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(UploadResponse{Filename: fileHeader.Filename, Result: result})
}

// handleHealth reports liveness plus whether the model is loaded.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	info := s.registry.Info()
	return c.JSON(HealthResponse{
		Status:      "ok",
		ModelLoaded: info.ModelLoaded,
		Engine:      info.Engine,
		Version:     info.Version,
	})
}

// handleInfo describes the loaded model artifacts.
func (s *Server) handleInfo(c *fiber.Ctx) error {
	info := s.registry.Info()
	return c.JSON(InfoResponse{
		Engine:           info.Engine,
		ModelVersion:     info.Version,
		ModelPath:        info.ModelPath,
		VectorizerPath:   info.VectorizerPath,
		State:            info.State,
		MaxContentLength: s.cfg.GetInt("model.max_content_length"),
	})
}

// handleModelReload discards the loaded artifacts and loads them again from
// disk. On failure the registry stays unloaded and subsequent predictions
// return 503 until a reload succeeds.
func (s *Server) handleModelReload(c *fiber.Ctx) error {
	if err := s.registry.Reload(c.UserContext()); err != nil {
		return s.writeError(c, err)
	}
	info := s.registry.Info()
	s.logger.Info("Model reloaded",
		zap.String("engine", info.Engine),
		zap.String("model_version", info.Version))
	return c.JSON(fiber.Map{
		"status":        "reloaded",
		"engine":        info.Engine,
		"model_version": info.Version,
	})
}

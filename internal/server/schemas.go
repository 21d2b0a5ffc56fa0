package server

import "github.com/spamsift/spamsift/internal/core"

// ClassifyRequest is the body of a single classification request.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// BatchClassifyRequest is the body of a batch classification request.
type BatchClassifyRequest struct {
	Emails []string `json:"emails"`
}

// BatchResponse is the response for a batch classification request.
type BatchResponse struct {
	Results          []BatchItemResponse `json:"results"`
	Dropped          []string            `json:"dropped,omitempty"`
	TotalProcessed   int                 `json:"total_processed"`
	ProcessingTimeMs float64             `json:"processing_time_ms"`
}

// BatchItemResponse pairs an item identifier with its classification.
type BatchItemResponse struct {
	ID     string               `json:"id"`
	Result *core.Classification `json:"result"`
}

// UploadResponse is the response for a file upload classification.
type UploadResponse struct {
	Filename string               `json:"filename"`
	Result   *core.Classification `json:"result"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the health endpoint body.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Engine      string `json:"engine"`
	Version     string `json:"model_version"`
}

// InfoResponse describes the loaded model.
type InfoResponse struct {
	Engine           string `json:"engine"`
	ModelVersion     string `json:"model_version"`
	ModelPath        string `json:"model_path"`
	VectorizerPath   string `json:"vectorizer_path"`
	State            string `json:"state"`
	MaxContentLength int    `json:"max_content_length"`
}

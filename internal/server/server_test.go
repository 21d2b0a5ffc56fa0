package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/registry"
)

const testAPIKey = "test-key"

type stubVectorizer struct{}

func (stubVectorizer) Transform(string) ([]float64, error) { return []float64{1}, nil }
func (stubVectorizer) Dimension() int                      { return 1 }

type stubModel struct {
	label int
	probs []float64
}

func (s stubModel) Predict([]float64) (int, error)            { return s.label, nil }
func (s stubModel) PredictProba([]float64) ([]float64, error) { return s.probs, nil }

func newTestServer(t *testing.T, load registry.LoadFunc) *Server {
	t.Helper()

	v := config.NewEmptyViper()
	v.Set("server.listen_address", ":0")
	v.Set("server.api_key", testAPIKey)
	v.Set("server.cors_origins", "*")
	v.Set("server.rate_limit.max", 1000)
	v.Set("server.rate_limit.window", "1m")
	v.Set("server.batch_limit", 100)
	v.Set("server.max_upload_bytes", 1024*1024)
	v.Set("model.max_content_length", 10000)
	cfg := config.NewFromViper(v)

	logger := zap.NewNop()
	reg := registry.New(load, logger, registry.Options{Version: "test-1.0", Engine: "bayes"})
	predictor := core.NewPredictor(reg, core.NewNormalizer(logger), logger, 10000, "test-1.0")
	service := core.NewClassifierService(predictor, nil, logger, false, 0)
	return NewServer(service, reg, cfg, logger)
}

func spamServer(t *testing.T) *Server {
	return newTestServer(t, func(context.Context) (core.Vectorizer, core.Model, error) {
		return stubVectorizer{}, stubModel{label: core.LabelSpam, probs: []float64{0.1, 0.9}}, nil
	})
}

func brokenServer(t *testing.T) *Server {
	return newTestServer(t, func(context.Context) (core.Vectorizer, core.Model, error) {
		return nil, nil, &core.ModelLoadError{Path: "/missing", Cause: errors.New("no such file")}
	})
}

func doJSON(t *testing.T, s *Server, method, path, body, apiKey string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decoding body %q: %v", data, err)
	}
}

func TestClassifyRequiresAPIKey(t *testing.T) {
	s := spamServer(t)

	resp := doJSON(t, s, "POST", "/api/v1/classify", `{"text":"hello"}`, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", resp.StatusCode)
	}

	resp = doJSON(t, s, "POST", "/api/v1/classify", `{"text":"hello"}`, "wrong-key")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("wrong key: status = %d, want 403", resp.StatusCode)
	}
}

func TestClassify(t *testing.T) {
	s := spamServer(t)

	resp := doJSON(t, s, "POST", "/api/v1/classify", `{"text":"WIN FREE MONEY NOW"}`, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result core.Classification
	decodeBody(t, resp, &result)
	if !result.IsSpam {
		t.Error("IsSpam = false, want true")
	}
	if result.SpamProbability != 0.9 {
		t.Errorf("SpamProbability = %f, want 0.9", result.SpamProbability)
	}
	if result.ModelVersion != "test-1.0" {
		t.Errorf("ModelVersion = %q, want test-1.0", result.ModelVersion)
	}
}

func TestClassifyValidation(t *testing.T) {
	s := spamServer(t)

	resp := doJSON(t, s, "POST", "/api/v1/classify", `{"text":""}`, testAPIKey)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var errResp ErrorResponse
	decodeBody(t, resp, &errResp)
	if errResp.Error != "validation_error" {
		t.Errorf("error = %q, want validation_error", errResp.Error)
	}
	if errResp.Message != "email text cannot be empty" {
		t.Errorf("message = %q, want empty-text reason", errResp.Message)
	}
}

func TestClassifyModelUnavailable(t *testing.T) {
	s := brokenServer(t)

	resp := doJSON(t, s, "POST", "/api/v1/classify", `{"text":"hello world"}`, testAPIKey)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var errResp ErrorResponse
	decodeBody(t, resp, &errResp)
	if errResp.Error != "model_unavailable" {
		t.Errorf("error = %q, want model_unavailable", errResp.Error)
	}
	if strings.Contains(errResp.Message, "/missing") {
		t.Errorf("message %q leaks artifact path", errResp.Message)
	}
}

func TestClassifyBatch(t *testing.T) {
	s := spamServer(t)

	resp := doJSON(t, s, "POST", "/api/v1/classify/batch", `{"emails":["first email","","second email"]}`, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var batch BatchResponse
	decodeBody(t, resp, &batch)
	if batch.TotalProcessed != 2 {
		t.Errorf("TotalProcessed = %d, want 2", batch.TotalProcessed)
	}
	if len(batch.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(batch.Results))
	}
	if batch.Results[0].ID != "0" || batch.Results[1].ID != "2" {
		t.Errorf("result IDs = [%s %s], want [0 2]", batch.Results[0].ID, batch.Results[1].ID)
	}
	if len(batch.Dropped) != 1 || batch.Dropped[0] != "1" {
		t.Errorf("Dropped = %v, want [1]", batch.Dropped)
	}
}

func TestClassifyBatchLimits(t *testing.T) {
	s := spamServer(t)

	resp := doJSON(t, s, "POST", "/api/v1/classify/batch", `{"emails":[]}`, testAPIKey)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty batch: status = %d, want 400", resp.StatusCode)
	}

	emails := make([]string, 101)
	for i := range emails {
		emails[i] = "text"
	}
	body, _ := json.Marshal(map[string][]string{"emails": emails})
	resp = doJSON(t, s, "POST", "/api/v1/classify/batch", string(body), testAPIKey)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("oversized batch: status = %d, want 400", resp.StatusCode)
	}
}

func TestClassifyUpload(t *testing.T) {
	s := spamServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "email.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte("WIN FREE MONEY NOW")); err != nil {
		t.Fatalf("writing part: %v", err)
	}
	w.Close()

	req := httptest.NewRequest("POST", "/api/v1/classify/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-API-Key", testAPIKey)
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var upload UploadResponse
	decodeBody(t, resp, &upload)
	if upload.Filename != "email.txt" {
		t.Errorf("Filename = %q, want email.txt", upload.Filename)
	}
	if upload.Result == nil || !upload.Result.IsSpam {
		t.Errorf("Result = %+v, want spam verdict", upload.Result)
	}
}

func TestClassifyUploadUnsupportedType(t *testing.T) {
	s := spamServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "email.docx")
	part.Write([]byte("content"))
	w.Close()

	req := httptest.NewRequest("POST", "/api/v1/classify/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-API-Key", testAPIKey)
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthNeedsNoAuth(t *testing.T) {
	s := spamServer(t)

	resp := doJSON(t, s, "GET", "/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var health HealthResponse
	decodeBody(t, resp, &health)
	if health.Status != "ok" {
		t.Errorf("Status = %q, want ok", health.Status)
	}
	// No prediction has run yet, so the model is not loaded.
	if health.ModelLoaded {
		t.Error("ModelLoaded = true before first prediction")
	}
}

func TestInfo(t *testing.T) {
	s := spamServer(t)

	// Load the model through a prediction first.
	doJSON(t, s, "POST", "/api/v1/classify", `{"text":"hello world"}`, testAPIKey)

	resp := doJSON(t, s, "GET", "/api/v1/info", "", testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var info InfoResponse
	decodeBody(t, resp, &info)
	if info.Engine != "bayes" {
		t.Errorf("Engine = %q, want bayes", info.Engine)
	}
	if info.ModelVersion != "test-1.0" {
		t.Errorf("ModelVersion = %q, want test-1.0", info.ModelVersion)
	}
	if info.State != "loaded" {
		t.Errorf("State = %q, want loaded", info.State)
	}
	if info.MaxContentLength != 10000 {
		t.Errorf("MaxContentLength = %d, want 10000", info.MaxContentLength)
	}
}

func TestModelReload(t *testing.T) {
	s := spamServer(t)

	resp := doJSON(t, s, "POST", "/api/v1/model/reload", "", testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, s, "GET", "/health", "", "")
	var health HealthResponse
	decodeBody(t, resp, &health)
	if !health.ModelLoaded {
		t.Error("ModelLoaded = false after reload")
	}
}

func TestModelReloadFailure(t *testing.T) {
	s := brokenServer(t)

	resp := doJSON(t, s, "POST", "/api/v1/model/reload", "", testAPIKey)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := spamServer(t)

	resp := doJSON(t, s, "GET", "/health", "", "")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

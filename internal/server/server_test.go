package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/liyue/office-engine/internal/emit"
	"github.com/liyue/office-engine/internal/generation"
	"github.com/liyue/office-engine/internal/llm"
	"github.com/liyue/office-engine/internal/storage"
	"github.com/liyue/office-engine/internal/structure"
	"github.com/liyue/office-engine/internal/types"
)

// newTestServer creates a server over a temp artifact store. The base
// provider config has no API key, so paths that need the model fail with a
// provider error while structure-driven paths run fully offline.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	svc := generation.NewService(store, llm.Config{
		Provider: llm.ProviderOpenAI,
		Model:    "test-model",
	})
	s := New(svc, Config{})
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

// wordRequestBody is a generation request carrying a pre-built structure,
// which needs no AI provider.
const wordRequestBody = `{
	"structure": {
		"type": "word",
		"title": "Notes",
		"word": {"blocks": [{"kind": "paragraph", "paragraph": {"text": "First draft."}}]}
	}
}`

// TestHealthEndpoint tests the /health endpoint
func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got '%s'", resp["status"])
	}
}

// TestStatusEndpoint tests the /api/status endpoint
func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()

	s.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", resp.Status)
	}
	if resp.Provider != llm.ProviderOpenAI {
		t.Errorf("expected provider 'openai', got '%s'", resp.Provider)
	}
	if resp.Model != "test-model" {
		t.Errorf("expected model 'test-model', got '%s'", resp.Model)
	}
	if resp.Artifacts != 0 {
		t.Errorf("expected 0 artifacts, got %d", resp.Artifacts)
	}
}

// TestGenerateEndpoint_PublishesArtifact tests the offline structure path
func TestGenerateEndpoint_PublishesArtifact(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(wordRequestBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleGenerate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !strings.HasSuffix(resp.Filename, ".docx") {
		t.Errorf("expected a .docx filename, got %q", resp.Filename)
	}
	if resp.FileURL != "/api/download/"+resp.Filename {
		t.Errorf("expected file_url to point at the download route, got %q", resp.FileURL)
	}
	if resp.DocType != types.DocTypeWord {
		t.Errorf("expected doc_type word, got %q", resp.DocType)
	}

	if _, err := os.Stat(filepath.Join(s.svc.Store().Dir(), resp.Filename)); err != nil {
		t.Errorf("expected artifact on disk: %v", err)
	}
}

// TestGenerateEndpoint_InvalidJSON tests /api/generate with a broken body
func TestGenerateEndpoint_InvalidJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleGenerate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

// TestGenerateEndpoint_EmptyRequest tests /api/generate without text or structure
func TestGenerateEndpoint_EmptyRequest(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleGenerate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

// TestGenerateEndpoint_InvalidStructure tests that a bad structure maps to 422
func TestGenerateEndpoint_InvalidStructure(t *testing.T) {
	s := newTestServer(t)

	body := `{"structure": {"type": "word", "word": {"blocks": [{"kind": "table"}]}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleGenerate(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !strings.Contains(resp["error"], "blocks[0]") {
		t.Errorf("expected the offending path in the error, got %q", resp["error"])
	}
}

// TestGenerateEndpoint_ProviderFailure tests that text requests without a
// usable provider map to 502
func TestGenerateEndpoint_ProviderFailure(t *testing.T) {
	s := newTestServer(t)

	body := `{"text": "write a quarterly report", "doc_type": "word"}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleGenerate(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d: %s", w.Code, w.Body.String())
	}
}

// TestGenerateStreamEndpoint tests SSE output for the offline structure path
func TestGenerateStreamEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate/stream", strings.NewReader(wordRequestBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleGenerateStream(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: status") {
		t.Error("expected a status event in the stream")
	}
	if !strings.Contains(body, "event: result") {
		t.Error("expected a result event in the stream")
	}
	if !strings.Contains(body, `"file_url"`) {
		t.Error("expected the result payload to carry a file_url")
	}
	if strings.Contains(body, "event: error") {
		t.Errorf("expected no error event, got: %s", body)
	}
}

// TestGenerateStreamEndpoint_InvalidRequest tests that validation fails
// before the stream opens
func TestGenerateStreamEndpoint_InvalidRequest(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate/stream", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleGenerateStream(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected a plain JSON error, got %q", ct)
	}
}

// TestGenerateStreamEndpoint_ProviderFailure tests that provider errors ride
// the stream once it is open
func TestGenerateStreamEndpoint_ProviderFailure(t *testing.T) {
	s := newTestServer(t)

	body := `{"text": "write a quarterly report", "doc_type": "word"}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleGenerateStream(w, req)

	if !strings.Contains(w.Body.String(), "event: error") {
		t.Errorf("expected an error event in the stream, got: %s", w.Body.String())
	}
}

// TestModifyEndpoint_MissingInstruction tests /api/modify validation
func TestModifyEndpoint_MissingInstruction(t *testing.T) {
	s := newTestServer(t)

	body := `{"structure": {"type": "word", "word": {"blocks": []}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/modify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleModify(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

// TestModifyEndpoint_ProviderFailure tests that modify needs a provider
func TestModifyEndpoint_ProviderFailure(t *testing.T) {
	s := newTestServer(t)

	body := `{
		"instruction": "add a closing section",
		"structure": {
			"type": "word",
			"word": {"blocks": [{"kind": "paragraph", "paragraph": {"text": "Hello."}}]}
		}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/modify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleModify(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d: %s", w.Code, w.Body.String())
	}
}

// TestChatEndpoint_EmptyMessages tests /api/chat validation
func TestChatEndpoint_EmptyMessages(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages": []}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

// TestChatEndpoint_ProviderFailure tests that chat needs a provider
func TestChatEndpoint_ProviderFailure(t *testing.T) {
	s := newTestServer(t)

	body := `{"messages": [{"role": "user", "content": "I need a slide deck"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", w.Code)
	}
}

// TestChatStreamEndpoint_ProviderFailure tests that chat stream errors ride
// the stream
func TestChatStreamEndpoint_ProviderFailure(t *testing.T) {
	s := newTestServer(t)

	body := `{"messages": [{"role": "user", "content": "I need a slide deck"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleChatStream(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "event: error") {
		t.Errorf("expected an error event, got: %s", w.Body.String())
	}
}

// TestDetectEndpoint tests /api/detect with the keyword fallback
func TestDetectEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := `{"text": "a sales presentation for investors"}`
	req := httptest.NewRequest(http.MethodPost, "/api/detect", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleDetect(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp DetectResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Type != types.DocTypePPT {
		t.Errorf("expected type ppt, got %q", resp.Type)
	}
}

// TestDetectEndpoint_MissingText tests /api/detect validation
func TestDetectEndpoint_MissingText(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/detect", strings.NewReader(`{"text": "  "}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleDetect(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

// TestDownloadEndpoint tests the full generate-then-download round trip
func TestDownloadEndpoint(t *testing.T) {
	s := newTestServer(t)

	genReq := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(wordRequestBody))
	genReq.Header.Set("Content-Type", "application/json")
	genW := httptest.NewRecorder()
	s.handleGenerate(genW, genReq)
	if genW.Code != http.StatusOK {
		t.Fatalf("generate failed: %d %s", genW.Code, genW.Body.String())
	}
	var gen GenerateResponse
	if err := json.Unmarshal(genW.Body.Bytes(), &gen); err != nil {
		t.Fatalf("failed to parse generate response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/download/"+gen.Filename, nil)
	req.SetPathValue("filename", gen.Filename)
	w := httptest.NewRecorder()

	s.handleDownload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "wordprocessingml") {
		t.Errorf("expected a docx content type, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("expected an attachment disposition, got %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("expected the body to be a zip container")
	}
}

// TestDownloadEndpoint_Traversal tests that path traversal is rejected
func TestDownloadEndpoint_Traversal(t *testing.T) {
	s := newTestServer(t)

	for _, name := range []string{"../secret.docx", "a/b.docx", "..docx", "notes.txt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/download/file", nil)
		req.SetPathValue("filename", name)
		w := httptest.NewRecorder()

		s.handleDownload(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("name %q: expected status 400, got %d", name, w.Code)
		}
	}
}

// TestDownloadEndpoint_NotFound tests downloading a missing artifact
func TestDownloadEndpoint_NotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/download/missing.docx", nil)
	req.SetPathValue("filename", "missing.docx")
	w := httptest.NewRecorder()

	s.handleDownload(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

// TestCORSMiddleware tests CORS headers are set
func TestCORSMiddleware(t *testing.T) {
	s := newTestServer(t)

	handler := s.withCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header Access-Control-Allow-Origin: *")
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected CORS header Access-Control-Allow-Methods")
	}
}

// TestCORSMiddleware_ConfiguredOrigin tests a non-default allowed origin
func TestCORSMiddleware_ConfiguredOrigin(t *testing.T) {
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	svc := generation.NewService(store, llm.Config{Provider: llm.ProviderOpenAI})
	s := New(svc, Config{CORSOrigin: "https://app.example.com"})
	t.Cleanup(s.rateLimiter.Stop)

	handler := s.withCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("expected the configured origin, got %q", got)
	}
}

// TestCORSMiddleware_OPTIONS tests OPTIONS preflight request
func TestCORSMiddleware_OPTIONS(t *testing.T) {
	s := newTestServer(t)

	handler := s.withCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("should not reach here")) //nolint:errcheck
	}))

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 for OPTIONS, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Error("OPTIONS response should have empty body")
	}
}

// TestLoggingMiddleware tests that logging middleware passes through
func TestLoggingMiddleware(t *testing.T) {
	s := newTestServer(t)

	called := false
	handler := s.withLogging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !called {
		t.Error("logging middleware should call next handler")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

// TestRateLimitMiddleware tests that the limiter denies past the burst
func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t)

	handler := s.httpServer.Handler
	denied := false
	for i := 0; i < 15; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(wordRequestBody))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.9:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			denied = true
			if w.Header().Get("Retry-After") == "" {
				t.Error("expected a Retry-After header on 429")
			}
			break
		}
	}
	if !denied {
		t.Error("expected the generate tier to deny past its burst")
	}
}

// TestSSEWriter tests SSE event writing
func TestSSEWriter(t *testing.T) {
	w := httptest.NewRecorder()

	sse, err := NewSSEWriter(w)
	if err != nil {
		t.Fatalf("failed to create SSE writer: %v", err)
	}

	event := map[string]string{"step": "test", "message": "hello"}
	if err := sse.WriteEvent("status", event); err != nil {
		t.Fatalf("failed to write event: %v", err)
	}

	if !bytes.Contains(w.Body.Bytes(), []byte("event: status")) {
		t.Error("expected 'event: status' in output")
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("data:")) {
		t.Error("expected 'data:' in output")
	}
}

// TestSSEWriter_Heartbeat tests idle keep-alive comments
func TestSSEWriter_Heartbeat(t *testing.T) {
	w := httptest.NewRecorder()

	sse, err := NewSSEWriter(w)
	if err != nil {
		t.Fatalf("failed to create SSE writer: %v", err)
	}

	stop := sse.StartHeartbeat(10 * time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	stop()

	if !bytes.Contains(w.Body.Bytes(), []byte(": keep-alive")) {
		t.Error("expected a keep-alive comment on an idle stream")
	}
}

// TestHTTPStatus tests the error to status code mapping
func TestHTTPStatus(t *testing.T) {
	badRequest := (&types.GenerationRequest{}).Validate()
	if badRequest == nil {
		t.Fatal("expected an empty generation request to fail validation")
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"request validation", badRequest, http.StatusBadRequest},
		{"invalid artifact name", fmt.Errorf("resolve: %w", storage.ErrInvalidName), http.StatusBadRequest},
		{"structure validation", &structure.ValidationError{Path: "blocks[0]", Message: "bad"}, http.StatusUnprocessableEntity},
		{"artifact not found", &storage.NotFoundError{Name: "x.docx"}, http.StatusNotFound},
		{"provider failure", &llm.ProviderError{Provider: "openai", Message: "no key"}, http.StatusBadGateway},
		{"outline failure", &generation.OutlineError{Stage: "modify", Message: "bad reply"}, http.StatusBadGateway},
		{"emit failure", &emit.IOError{Op: "write", Cause: errors.New("disk full")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

// TestRouter_MethodPatterns tests that routes enforce their methods
func TestRouter_MethodPatterns(t *testing.T) {
	s := newTestServer(t)
	handler := s.httpServer.Handler

	req := httptest.NewRequest(http.MethodGet, "/api/generate", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET /api/generate, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for GET /health, got %d", w.Code)
	}
}

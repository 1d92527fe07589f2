package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/shapecloud/pkg/buildinfo"
	"github.com/matzehuels/shapecloud/pkg/cache"
	"github.com/matzehuels/shapecloud/pkg/cloud/sink"
	"github.com/matzehuels/shapecloud/pkg/errors"
	"github.com/matzehuels/shapecloud/pkg/pipeline"
)

const smallCloud = `{
	"width": 200, "height": 120, "margin": 5,
	"text": "I", "text_size": 100,
	"words": ["go", "chi"], "min_size": 8, "max_size": 16,
	"max_tries": 300, "seed": 1%s
}`

func body(extra string) string {
	return strings.Replace(smallCloud, "%s", extra, 1)
}

func newTestServer(t *testing.T, c cache.Cache, fontDir string) *Server {
	t.Helper()
	if c == nil {
		c = cache.NewNullCache()
	}
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(c, nil, logger)
	t.Cleanup(func() { runner.Close() })
	return New(Config{Runner: runner, Logger: logger, FontDir: fontDir, MaxBodyBytes: 4096})
}

func do(t *testing.T, s *Server, method, path, payload string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v\n%s", err, rec.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, "")
	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestVersion(t *testing.T) {
	s := newTestServer(t, nil, "")
	rec := do(t, s, http.MethodGet, "/version", "")
	var info buildinfo.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info != buildinfo.Get() {
		t.Errorf("version = %+v, want %+v", info, buildinfo.Get())
	}
}

func TestCreateCloud(t *testing.T) {
	s := newTestServer(t, nil, "")

	tests := []struct {
		name        string
		extra       string
		contentType string
		prefix      []byte
	}{
		{"default svg", "", "image/svg+xml", []byte("<svg")},
		{"format field", `, "format": "JSON"`, "application/json", []byte("{")},
		{"formats list", `, "formats": ["png"]`, "image/png", []byte("\x89PNG")},
		{"pdf", `, "format": "pdf"`, "application/pdf", []byte("%PDF")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/clouds", body(tt.extra))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if !bytes.HasPrefix(rec.Body.Bytes(), tt.prefix) {
				t.Errorf("body starts with %q", rec.Body.Bytes()[:min(8, rec.Body.Len())])
			}
			if rec.Header().Get(HeaderSceneHash) == "" || rec.Header().Get(HeaderWords) == "" {
				t.Error("missing cloud headers")
			}
			if rec.Header().Get(RequestIDHeader) == "" {
				t.Error("missing request id")
			}
		})
	}
}

func TestCreateCloudJSONScene(t *testing.T) {
	s := newTestServer(t, nil, "")
	rec := do(t, s, http.MethodPost, "/v1/clouds", body(`, "format": "json"`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	scene, err := sink.ParseJSON(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if scene.Width != 200 || scene.Height != 120 || scene.Seed != 1 {
		t.Errorf("scene header = %dx%d seed %d", scene.Width, scene.Height, scene.Seed)
	}
	if scene.Stats.Attempts > 300 {
		t.Errorf("attempts %d exceed max tries", scene.Stats.Attempts)
	}
	if got := rec.Header().Get(HeaderWords); got != strconv.Itoa(len(scene.Words)) {
		t.Errorf("%s = %s, want %d", HeaderWords, got, len(scene.Words))
	}
}

func TestCreateCloudCached(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, fc, "")

	first := do(t, s, http.MethodPost, "/v1/clouds", body(""))
	second := do(t, s, http.MethodPost, "/v1/clouds", body(""))
	if first.Header().Get(HeaderCache) != "miss" || second.Header().Get(HeaderCache) != "hit" {
		t.Errorf("X-Cache = %q then %q, want miss then hit", first.Header().Get(HeaderCache), second.Header().Get(HeaderCache))
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached body differs")
	}
}

func TestRequestIDEcho(t *testing.T) {
	s := newTestServer(t, nil, "")

	rec := do(t, s, http.MethodGet, "/healthz", "", RequestIDHeader, "abc-123")
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want echo", got)
	}

	rec = do(t, s, http.MethodGet, "/healthz", "", RequestIDHeader, strings.Repeat("x", 500))
	if got := rec.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("oversized id should be replaced by a UUID, got %q", got)
	}
}

func TestCreateCloudErrors(t *testing.T) {
	s := newTestServer(t, nil, t.TempDir())
	noFonts := newTestServer(t, nil, "")

	tests := []struct {
		name    string
		server  *Server
		payload string
		status  int
		code    errors.Code
	}{
		{"malformed json", s, `{"width":`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", s, `{"wdith": 10}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"trailing object", s, body("") + `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad text size", s, `{"text_size": "huge"}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"missing words", s, `{"text": "I"}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"inverted range", s, `{"text": "I", "words": ["a"], "min_size": 20, "max_size": 10}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"unknown format", s, body(`, "format": "gif"`), http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"two formats", s, body(`, "formats": ["svg", "png"]`), http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"path traversal", s, body(`, "font": "../etc/passwd"`), http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"absolute font", s, body(`, "font": "/etc/passwd"`), http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"missing font file", s, body(`, "font": "nope.ttf"`), http.StatusUnprocessableEntity, errors.ErrCodeInvalidFont},
		{"unknown embedded font", s, body(`, "word_font": "embed:comic"`), http.StatusUnprocessableEntity, errors.ErrCodeInvalidFont},
		{"custom fonts disabled", noFonts, body(`, "font": "a.ttf"`), http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"body too large", s, `{"text": "` + strings.Repeat("a", 5000) + `"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, tt.server, http.MethodPost, "/v1/clouds", tt.payload, RequestIDHeader, "req-1")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.status, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if resp.Code != tt.code {
				t.Errorf("code = %s, want %s (%s)", resp.Code, tt.code, resp.Message)
			}
			if resp.RequestID != "req-1" {
				t.Errorf("request_id = %q", resp.RequestID)
			}
			if strings.HasPrefix(resp.Message, string(resp.Code)) {
				t.Errorf("message should not repeat the code: %q", resp.Message)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, nil, "")
	rec := do(t, s, http.MethodGet, "/v2/nothing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != errors.ErrCodeNotFound {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidConfig, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidFormat, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidFont, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeIO, "x"), http.StatusInternalServerError},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		if got := StatusCode(tt.err); got != tt.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s := newTestServer(t, nil, "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("ListenAndServe() = %v, want nil after shutdown", err)
	}
}

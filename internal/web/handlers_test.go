package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fradiag/fraingest/internal/config"
	"github.com/fradiag/fraingest/internal/core"
)

const knownTransformer = "11111111-1111-1111-1111-111111111111"

// stubStore satisfies core.ImportStore without a database.
type stubStore struct {
	transformers map[string]bool
}

func (s *stubStore) InsertMeasurement(ctx context.Context, m *core.Measurement) error { return nil }

func (s *stubStore) AppendImport(ctx context.Context, o core.Outcome, measurementID *uuid.UUID) error {
	return nil
}

func (s *stubStore) TransformerExists(ctx context.Context, id string) (bool, error) {
	return s.transformers[id], nil
}

func testServer(t *testing.T, opts core.ServiceOptions) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = time.Minute

	st := &stubStore{transformers: map[string]bool{knownTransformer: true}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := core.NewService(st, nil, logger, opts)

	return NewServer(svc, nil, nil, cfg)
}

// sweepCSV builds a clean generic export spanning the expected window.
func sweepCSV(points int) string {
	var b strings.Builder
	b.WriteString("freq,mag\n")
	step := (2_000_000.0 - 20.0) / float64(points-1)
	for i := 0; i < points; i++ {
		fmt.Fprintf(&b, "%.4f,%.4f\n", 20.0+float64(i)*step, -10.0)
	}
	return b.String()
}

// uploadBody assembles a multipart form. An empty filename omits the file
// part entirely.
func uploadBody(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s) failed: %v", k, err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func postUpload(t *testing.T, srv *Server, fields map[string]string, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := uploadBody(t, fields, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/measurements/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("response body is not JSON: %v", err)
	}
	return out
}

func TestHandleUpload_Success(t *testing.T) {
	srv := testServer(t, core.ServiceOptions{})
	fields := map[string]string{
		"transformer_id": knownTransformer,
		"winding_config": "HV-LV",
	}

	rec := postUpload(t, srv, fields, "sweep.csv", sweepCSV(60))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["measurement_id"] == "" {
		t.Error("response carries no measurement_id")
	}
	if body["message"] != "measurement imported successfully" {
		t.Errorf("message = %v", body["message"])
	}
	if warnings, ok := body["validation_warnings"].([]any); !ok || len(warnings) != 0 {
		t.Errorf("validation_warnings = %v, want empty array", body["validation_warnings"])
	}
	if body["data_points"] != float64(60) {
		t.Errorf("data_points = %v, want 60", body["data_points"])
	}
}

func TestHandleUpload_NoFile(t *testing.T) {
	srv := testServer(t, core.ServiceOptions{})
	rec := postUpload(t, srv, map[string]string{"transformer_id": knownTransformer}, "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUpload_MissingTransformerID(t *testing.T) {
	srv := testServer(t, core.ServiceOptions{})
	rec := postUpload(t, srv, nil, "sweep.csv", sweepCSV(60))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUpload_UnknownTransformer(t *testing.T) {
	srv := testServer(t, core.ServiceOptions{})
	fields := map[string]string{"transformer_id": uuid.NewString()}

	rec := postUpload(t, srv, fields, "sweep.csv", sweepCSV(60))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleUpload_BadInputReturns422(t *testing.T) {
	srv := testServer(t, core.ServiceOptions{})
	fields := map[string]string{"transformer_id": knownTransformer}

	rec := postUpload(t, srv, fields, "empty.csv", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (body %s)", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["kind"] != "unreadable_input" {
		t.Errorf("kind = %v, want unreadable_input", body["kind"])
	}
	if body["error"] == "" {
		t.Error("error message missing")
	}
}

func TestHandleUpload_FileTooLarge(t *testing.T) {
	srv := testServer(t, core.ServiceOptions{MaxFileSizeBytes: 64})
	fields := map[string]string{"transformer_id": knownTransformer}

	rec := postUpload(t, srv, fields, "big.csv", strings.Repeat("a", 512))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestHandleUpload_InvalidDate(t *testing.T) {
	srv := testServer(t, core.ServiceOptions{})
	fields := map[string]string{
		"transformer_id":   knownTransformer,
		"measurement_date": "last tuesday",
	}

	rec := postUpload(t, srv, fields, "sweep.csv", sweepCSV(60))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUpload_LimiterBusy(t *testing.T) {
	srv := testServer(t, core.ServiceOptions{
		MaxConcurrent: 1,
		MaxWait:       20 * time.Millisecond,
	})

	if err := srv.service.Limiter().Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer srv.service.Limiter().Release()

	fields := map[string]string{"transformer_id": knownTransformer}
	rec := postUpload(t, srv, fields, "sweep.csv", sweepCSV(60))

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Errorf("Retry-After = %q, want 30", rec.Header().Get("Retry-After"))
	}
}

func TestHandleHealth(t *testing.T) {
	srv := testServer(t, core.ServiceOptions{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
	if body["active_imports"] != float64(0) {
		t.Errorf("active_imports = %v, want 0", body["active_imports"])
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := testServer(t, core.ServiceOptions{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestShutdown_StopsRateLimiters(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = time.Minute
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 100
	cfg.Rate.UploadLimit = 10

	st := &stubStore{transformers: map[string]bool{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := core.NewService(st, nil, logger, core.ServiceOptions{})
	srv := NewServer(svc, nil, nil, cfg)

	if len(srv.limiters) != 2 {
		t.Fatalf("expected global and upload limiters, got %d", len(srv.limiters))
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	for i, rl := range srv.limiters {
		select {
		case <-rl.stop:
		default:
			t.Errorf("limiter %d cleanup still running after shutdown", i)
		}
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("10.0.0.1") || !rl.allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("10.0.0.1") {
		t.Error("third request within the window should be rejected")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("a different client must not be affected")
	}
}

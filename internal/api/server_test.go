package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fmuoria/resume-screener/internal/config"
	"github.com/fmuoria/resume-screener/internal/models"
)

func testServer() *Server {
	cfg := &config.Config{
		Port:                   "8000",
		FrontendURL:            "http://localhost:3000",
		DefaultSpreadsheetName: "Analisis Resume AI",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, nil, nil, logger)
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rec.Code)
	}
}

func TestSetScreeningConfigValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "Valid config",
			body:       `{"job_position": "Backend Engineer", "email_subjects": ["cv", "resume"]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "Missing position",
			body:       `{"email_subjects": ["cv"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Blank position",
			body:       `{"job_position": "   ", "email_subjects": ["cv"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "No subjects",
			body:       `{"job_position": "Backend Engineer", "email_subjects": []}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Blank subject entry",
			body:       `{"job_position": "Backend Engineer", "email_subjects": ["cv", "  "]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Invalid JSON",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer()

			req := httptest.NewRequest(http.MethodPut, "/api/screening-config", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestScreeningConfigRoundTrip(t *testing.T) {
	s := testServer()

	body := `{"job_position": "Backend Engineer", "email_subjects": ["cv", "resume"]}`
	req := httptest.NewRequest(http.MethodPut, "/api/screening-config", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/screening-config", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var cfg models.ScreeningConfig
	if err := json.NewDecoder(rec.Body).Decode(&cfg); err != nil {
		t.Fatalf("Failed to decode config: %v", err)
	}
	if cfg.JobPosition != "Backend Engineer" {
		t.Errorf("JobPosition = %q", cfg.JobPosition)
	}
	if len(cfg.EmailSubjects) != 2 {
		t.Errorf("Expected 2 subjects, got %d", len(cfg.EmailSubjects))
	}
}

// TestStartScreeningWithoutPreconditions verifies a run with missing
// configuration is rejected before any external call; no auth manager or
// Google client is needed to serve the failure.
func TestStartScreeningWithoutPreconditions(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodPost, "/api/start-screening", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400 for missing configuration", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "job description") {
		t.Errorf("Error should name the missing precondition: %s", rec.Body.String())
	}
}

func TestUploadJobDescriptionRejectsNonPDF(t *testing.T) {
	s := testServer()

	var body strings.Builder
	boundary := "testboundary"
	body.WriteString("--" + boundary + "\r\n")
	body.WriteString(`Content-Disposition: form-data; name="file"; filename="jobdesc.txt"` + "\r\n")
	body.WriteString("Content-Type: text/plain\r\n\r\n")
	body.WriteString("a plain text job description\r\n")
	body.WriteString("--" + boundary + "--\r\n")

	req := httptest.NewRequest(http.MethodPost, "/api/upload-job-description", strings.NewReader(body.String()))
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400 for non-PDF upload", rec.Code)
	}
}

func TestUploadJobDescriptionRejectsUnextractablePDF(t *testing.T) {
	s := testServer()

	var body strings.Builder
	boundary := "testboundary"
	body.WriteString("--" + boundary + "\r\n")
	body.WriteString(`Content-Disposition: form-data; name="file"; filename="jobdesc.pdf"` + "\r\n")
	body.WriteString("Content-Type: application/pdf\r\n\r\n")
	body.WriteString("%PDF-1.4 but truncated and unreadable\r\n")
	body.WriteString("--" + boundary + "--\r\n")

	req := httptest.NewRequest(http.MethodPost, "/api/upload-job-description", strings.NewReader(body.String()))
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400 for unextractable PDF", rec.Code)
	}
}

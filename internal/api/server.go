package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/fmuoria/resume-screener/internal/archive"
	"github.com/fmuoria/resume-screener/internal/auth"
	"github.com/fmuoria/resume-screener/internal/config"
	"github.com/fmuoria/resume-screener/internal/evaluation"
	"github.com/fmuoria/resume-screener/internal/export"
	"github.com/fmuoria/resume-screener/internal/ingestion"
	"github.com/fmuoria/resume-screener/internal/ledger"
	"github.com/fmuoria/resume-screener/internal/models"
	"github.com/fmuoria/resume-screener/internal/pipeline"
)

// maxUploadBytes caps the job description upload size.
const maxUploadBytes = 32 << 20

// Server handles HTTP requests. It holds the current job description and
// screening configuration; both are snapshotted into immutable pipeline
// parameters per run, so configuration updates never reach a run in
// flight.
type Server struct {
	cfg    *config.Config
	auth   *auth.Manager
	llm    evaluation.ContentGenerator
	logger *slog.Logger

	mu             sync.RWMutex
	jobDescription string
	screening      models.ScreeningConfig
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, authMgr *auth.Manager, llm evaluation.ContentGenerator, logger *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		auth:   authMgr,
		llm:    llm,
		logger: logger,
	}
}

// Router returns the HTTP router.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/callback", s.handleAuthCallback)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/auth-status", s.handleAuthStatus)

	mux.HandleFunc("POST /api/upload-job-description", s.handleUploadJobDescription)
	mux.HandleFunc("GET /api/screening-config", s.handleGetScreeningConfig)
	mux.HandleFunc("PUT /api/screening-config", s.handleSetScreeningConfig)

	mux.HandleFunc("POST /api/start-screening", s.handleStartScreening)
	mux.HandleFunc("GET /api/results", s.handleGetResults)
	mux.HandleFunc("DELETE /api/results", s.handleClearResults)
	mux.HandleFunc("GET /api/export", s.handleExport)

	mux.HandleFunc("GET /api/health", s.handleHealth)

	return s.loggingMiddleware(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.auth.AuthURL(), http.StatusFound)
}

func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		s.respondError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	if err := s.auth.Exchange(r.Context(), code); err != nil {
		s.logger.Error("authorization code exchange failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	http.Redirect(w, r, s.cfg.FrontendURL, http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(); err != nil {
		s.logger.Error("logout failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]bool{
		"authenticated": s.auth.Authenticated(r.Context()),
	})
}

// handleUploadJobDescription accepts a PDF, extracts its text, and keeps
// it as the job description for subsequent runs. The text lives only for
// the process lifetime.
func (s *Server) handleUploadJobDescription(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		s.respondError(w, http.StatusBadRequest, "file must be a PDF")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	text := ingestion.ExtractText(data)
	if text == "" {
		s.respondError(w, http.StatusBadRequest, "could not extract text from PDF, or PDF is empty")
		return
	}

	s.mu.Lock()
	s.jobDescription = text
	s.mu.Unlock()

	preview := text
	if len(preview) > 500 {
		preview = preview[:500] + "..."
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": "job description extracted",
		"preview": preview,
	})
}

func (s *Server) handleGetScreeningConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	cfg := s.screening
	s.mu.RUnlock()
	s.respondJSON(w, http.StatusOK, cfg)
}

// handleSetScreeningConfig replaces the screening configuration
// wholesale; there is no partial update.
func (s *Server) handleSetScreeningConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.ScreeningConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(cfg.JobPosition) == "" {
		s.respondError(w, http.StatusBadRequest, "job_position is required")
		return
	}
	if len(cfg.EmailSubjects) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one email subject is required")
		return
	}
	for _, subject := range cfg.EmailSubjects {
		if strings.TrimSpace(subject) == "" {
			s.respondError(w, http.StatusBadRequest, "email subjects must be non-empty")
			return
		}
	}

	s.mu.Lock()
	s.screening = cfg
	s.mu.Unlock()

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "screening config updated"})
}

func (s *Server) handleStartScreening(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := s.snapshotParams()

	// Preconditions first, before any Google round trip.
	if err := params.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, status, err := s.session(ctx)
	if err != nil {
		s.respondError(w, status, err.Error())
		return
	}

	gmailSrv, err := session.Gmail(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	driveSrv, err := session.Drive(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sheetsSrv, err := session.Sheets(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	run := pipeline.New(
		ingestion.NewGmailSource(gmailSrv),
		ledgerOpener{ledger.NewStore(sheetsSrv, driveSrv, s.logger)},
		archive.NewDriveArchiver(driveSrv, s.logger),
		evaluation.NewEvaluator(s.llm, s.logger),
		s.logger,
	)

	summary, err := run.Run(ctx, params)
	if err != nil {
		if errors.Is(err, pipeline.ErrConfig) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("screening run failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	led, status, err := s.openLedger(r.Context())
	if err != nil {
		s.respondError(w, status, err.Error())
		return
	}

	records, err := led.ReadAll(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"results": records})
}

func (s *Server) handleClearResults(w http.ResponseWriter, r *http.Request) {
	led, status, err := s.openLedger(r.Context())
	if err != nil {
		s.respondError(w, status, err.Error())
		return
	}

	if err := led.Clear(r.Context()); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "all results cleared"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	led, status, err := s.openLedger(r.Context())
	if err != nil {
		s.respondError(w, status, err.Error())
		return
	}

	records, err := led.ReadAll(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.RLock()
	position := s.screening.JobPosition
	s.mu.RUnlock()

	buf, err := export.WriteExcel(records, position)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="screening-results.xlsx"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("failed to write export response", "error", err)
	}
}

// snapshotParams copies the mutable server state into immutable run
// parameters.
func (s *Server) snapshotParams() pipeline.Params {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subjects := make([]string, len(s.screening.EmailSubjects))
	copy(subjects, s.screening.EmailSubjects)

	return pipeline.Params{
		JobDescription: s.jobDescription,
		Config: models.ScreeningConfig{
			JobPosition:   s.screening.JobPosition,
			EmailSubjects: subjects,
		},
		DefaultLedgerName: s.cfg.DefaultSpreadsheetName,
	}
}

// session resolves the Google session, mapping a missing login to 401 so
// the frontend can prompt a re-login.
func (s *Server) session(ctx context.Context) (*auth.Session, int, error) {
	session, err := s.auth.Session(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return nil, http.StatusUnauthorized, err
		}
		return nil, http.StatusInternalServerError, err
	}
	return session, http.StatusOK, nil
}

// openLedger opens the ledger for the currently configured position.
func (s *Server) openLedger(ctx context.Context) (*ledger.Ledger, int, error) {
	session, status, err := s.session(ctx)
	if err != nil {
		return nil, status, err
	}

	driveSrv, err := session.Drive(ctx)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	sheetsSrv, err := session.Sheets(ctx)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	s.mu.RLock()
	position := s.screening.JobPosition
	s.mu.RUnlock()

	name := ledger.NameForPosition(position, s.cfg.DefaultSpreadsheetName)
	led, err := ledger.NewStore(sheetsSrv, driveSrv, s.logger).Open(ctx, name)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return led, http.StatusOK, nil
}

// ledgerOpener adapts the concrete store to the pipeline's interface.
type ledgerOpener struct {
	store *ledger.Store
}

func (o ledgerOpener) Open(ctx context.Context, name string) (pipeline.Ledger, error) {
	return o.store.Open(ctx, name)
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

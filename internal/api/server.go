package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"go.uber.org/zap"

	"github.com/jmunts-adl/screenshot-service/internal/config"
	"github.com/jmunts-adl/screenshot-service/internal/metrics"
	"github.com/jmunts-adl/screenshot-service/internal/screenshot"
)

// RelayService is the core the handlers delegate to.
type RelayService interface {
	CaptureURL(ctx context.Context, targetURL, proxy string) (screenshot.CaptureResult, error)
	CaptureAndUpload(ctx context.Context, targetURL, proxy, folder string) (uploadedURL, screenshotURL string, err error)
	UploadFromURL(ctx context.Context, sourceURL, folder, key string) (string, error)
	RenderAndUpload(ctx context.Context, targetURL, waitFor, folder string) (string, error)
}

// Server wires HTTP handlers to the relay service.
type Server struct {
	router chi.Router
	relay  RelayService
	cfg    config.Config
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(relay RelayService, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		relay:  relay,
		cfg:    cfg,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(cfg.RequestTimeout()))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(bearerAuthMiddleware(cfg.Auth.Token))
		}
		r.Route("/capture", func(r chi.Router) {
			r.Post("/", s.capture)
			r.Post("/upload", s.captureAndUpload)
			r.Post("/zenrows", s.captureZenRows)
		})
		r.Post("/upload", s.uploadFromURL)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// Capture and storage clients are constructed at startup; nothing
	// further to probe without spending provider credits.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, s.logger)
}

type captureRequest struct {
	URL   string `json:"url"`
	Proxy string `json:"proxy,omitempty"`
}

type captureResponse struct {
	ScreenshotURL string `json:"screenshot_url"`
	URL           string `json:"url"`
	ProxyTier     string `json:"proxy_tier,omitempty"`
}

func (s *Server) capture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", s.logger)
		return
	}
	if err := validateTargetURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}
	result, err := s.relay.CaptureURL(r.Context(), req.URL, req.Proxy)
	if err != nil {
		s.writeCoreError(w, "capture failed", err)
		return
	}
	writeJSON(w, http.StatusOK, captureResponse{
		ScreenshotURL: result.ScreenshotURL,
		URL:           req.URL,
		ProxyTier:     string(result.Tier),
	}, s.logger)
}

type captureUploadRequest struct {
	URL    string `json:"url"`
	Proxy  string `json:"proxy,omitempty"`
	Folder string `json:"folder,omitempty"`
}

type captureUploadResponse struct {
	UploadedURL   string `json:"uploaded_url"`
	ScreenshotURL string `json:"screenshot_url"`
	URL           string `json:"url"`
	Folder        string `json:"folder,omitempty"`
}

func (s *Server) captureAndUpload(w http.ResponseWriter, r *http.Request) {
	var req captureUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", s.logger)
		return
	}
	if err := validateTargetURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}
	folder := s.folderOrDefault(req.Folder)
	uploadedURL, screenshotURL, err := s.relay.CaptureAndUpload(r.Context(), req.URL, req.Proxy, folder)
	if err != nil {
		s.writeCoreError(w, "capture and upload failed", err)
		return
	}
	writeJSON(w, http.StatusOK, captureUploadResponse{
		UploadedURL:   uploadedURL,
		ScreenshotURL: screenshotURL,
		URL:           req.URL,
		Folder:        folder,
	}, s.logger)
}

type uploadRequest struct {
	ScreenshotURL string `json:"screenshot_url"`
	Folder        string `json:"folder,omitempty"`
}

type uploadResponse struct {
	UploadedURL   string `json:"uploaded_url"`
	ScreenshotURL string `json:"screenshot_url"`
	Folder        string `json:"folder,omitempty"`
}

func (s *Server) uploadFromURL(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", s.logger)
		return
	}
	if err := validateTargetURL(req.ScreenshotURL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}
	folder := s.folderOrDefault(req.Folder)
	uploadedURL, err := s.relay.UploadFromURL(r.Context(), req.ScreenshotURL, folder, "")
	if err != nil {
		s.writeCoreError(w, "upload failed", err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		UploadedURL:   uploadedURL,
		ScreenshotURL: req.ScreenshotURL,
		Folder:        folder,
	}, s.logger)
}

type zenRowsRequest struct {
	URL     string `json:"url"`
	WaitFor string `json:"wait_for,omitempty"`
	Folder  string `json:"folder,omitempty"`
}

type zenRowsResponse struct {
	UploadedURL string `json:"uploaded_url"`
	URL         string `json:"url"`
	Folder      string `json:"folder,omitempty"`
}

func (s *Server) captureZenRows(w http.ResponseWriter, r *http.Request) {
	var req zenRowsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", s.logger)
		return
	}
	if err := validateTargetURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}
	folder := s.folderOrDefault(req.Folder)
	uploadedURL, err := s.relay.RenderAndUpload(r.Context(), req.URL, req.WaitFor, folder)
	if err != nil {
		s.writeCoreError(w, "zenrows capture failed", err)
		return
	}
	writeJSON(w, http.StatusOK, zenRowsResponse{
		UploadedURL: uploadedURL,
		URL:         req.URL,
		Folder:      folder,
	}, s.logger)
}

func (s *Server) folderOrDefault(folder string) string {
	if folder != "" {
		return folder
	}
	return s.cfg.Storage.Folder
}

// writeCoreError maps typed core failures onto HTTP statuses:
// configuration problems are ours (500), everything else reports a bad
// upstream (502). Error text is preserved so failures can be diagnosed
// without re-running.
func (s *Server) writeCoreError(w http.ResponseWriter, prefix string, err error) {
	status := http.StatusBadGateway
	var cfgErr *screenshot.ConfigError
	if errors.As(err, &cfgErr) {
		status = http.StatusInternalServerError
	}
	s.logger.Error(prefix, zap.Error(err))
	writeError(w, status, prefix+": "+err.Error(), s.logger)
}

func validateTargetURL(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.New("url must be a well-formed absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, logger *zap.Logger) {
	writeJSON(w, status, map[string]string{"error": msg}, logger)
}

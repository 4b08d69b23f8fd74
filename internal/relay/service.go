// Package relay chains the capture stage with the storage stage:
// acquire a screenshot (hosted URL or raw bytes), download when needed,
// validate, and hand the image to the configured storage backend.
package relay

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/jmunts-adl/screenshot-service/internal/metrics"
	"github.com/jmunts-adl/screenshot-service/internal/screenshot"
	"github.com/jmunts-adl/screenshot-service/internal/storage"
)

// Capturer resolves a hosted screenshot URL for a target page.
type Capturer interface {
	Capture(ctx context.Context, req screenshot.CaptureRequest) (screenshot.CaptureResult, error)
}

// Renderer renders a page with JavaScript and returns raw image bytes.
type Renderer interface {
	Take(ctx context.Context, targetURL, waitFor string, waitMs int) ([]byte, string, error)
}

// Config tunes the relay flow.
type Config struct {
	// DownloadTimeout bounds the fetch of a hosted screenshot.
	DownloadTimeout time.Duration
	// DefaultFolder applies when a request names no folder.
	DefaultFolder string
}

// Service is stateless per request; the backend handle is configured
// once per process and safe for concurrent reuse.
type Service struct {
	capturer Capturer
	renderer Renderer
	backend  storage.Backend
	http     *resty.Client
	cfg      Config
	logger   *zap.Logger
}

// NewService wires the two stages together. renderer may be nil when the
// rendering provider is not configured.
func NewService(capturer Capturer, renderer Renderer, backend storage.Backend, cfg Config, logger *zap.Logger) *Service {
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 30 * time.Second
	}
	return &Service{
		capturer: capturer,
		renderer: renderer,
		backend:  backend,
		http:     resty.New().SetTimeout(cfg.DownloadTimeout),
		cfg:      cfg,
		logger:   logger,
	}
}

// CaptureURL runs the capture stage only and returns the provider-hosted
// screenshot URL.
func (s *Service) CaptureURL(ctx context.Context, targetURL, proxy string) (screenshot.CaptureResult, error) {
	return s.capturer.Capture(ctx, screenshot.CaptureRequest{URL: targetURL, Proxy: proxy})
}

// UploadFromURL downloads image bytes from a hosted screenshot URL and
// relays them to the storage backend. When key is empty a deterministic
// slug is derived from sourceURL, so repeated relays of the same source
// land on the same object name.
func (s *Service) UploadFromURL(ctx context.Context, sourceURL, folder, key string) (string, error) {
	data, contentType, err := s.download(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	if key == "" {
		key = storage.DeriveKey(sourceURL)
	}
	return s.upload(ctx, data, storage.UploadOptions{
		Folder:      s.folderOrDefault(folder),
		Key:         key,
		ContentType: contentType,
	})
}

// CaptureAndUpload chains capture, download and upload, returning the
// backend URL and the provider-hosted screenshot URL.
func (s *Service) CaptureAndUpload(ctx context.Context, targetURL, proxy, folder string) (uploadedURL, screenshotURL string, err error) {
	result, err := s.capturer.Capture(ctx, screenshot.CaptureRequest{URL: targetURL, Proxy: proxy})
	if err != nil {
		return "", "", err
	}
	uploadedURL, err = s.UploadFromURL(ctx, result.ScreenshotURL, folder, "")
	if err != nil {
		return "", "", err
	}
	s.logger.Info("screenshot captured and relayed",
		zap.String("target_url", targetURL),
		zap.String("tier", string(result.Tier)),
		zap.String("uploaded_url", uploadedURL),
	)
	return uploadedURL, result.ScreenshotURL, nil
}

// RenderAndUpload is the raw-byte path: render via the JavaScript
// provider and upload the validated bytes directly, with the object key
// derived from the target URL.
func (s *Service) RenderAndUpload(ctx context.Context, targetURL, waitFor, folder string) (string, error) {
	if s.renderer == nil {
		return "", &screenshot.ConfigError{
			Setting: "capture.zenrows.api_key",
			Reason:  "rendering provider is not configured",
		}
	}
	data, contentType, err := s.renderer.Take(ctx, targetURL, waitFor, 0)
	if err != nil {
		return "", err
	}
	return s.upload(ctx, data, storage.UploadOptions{
		Folder:      s.folderOrDefault(folder),
		Key:         storage.DeriveKey(targetURL),
		ContentType: contentType,
	})
}

func (s *Service) upload(ctx context.Context, data []byte, opts storage.UploadOptions) (string, error) {
	uploadedURL, err := s.backend.Upload(ctx, data, opts)
	metrics.ObserveUpload(s.backend.Name(), err == nil, len(data))
	if err != nil {
		return "", err
	}
	return uploadedURL, nil
}

func (s *Service) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	resp, err := s.http.R().SetContext(ctx).Get(sourceURL)
	if err != nil {
		return nil, "", &screenshot.DownloadError{URL: sourceURL, Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, "", &screenshot.DownloadError{
			URL:        sourceURL,
			StatusCode: resp.StatusCode(),
			Body:       screenshot.Truncate(resp.String(), 500),
		}
	}

	data := resp.Body()
	contentType, err := screenshot.SniffImage("download", data)
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = resp.Header().Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), "image") {
			contentType = "image/jpeg"
		}
	}
	return data, contentType, nil
}

func (s *Service) folderOrDefault(folder string) string {
	if folder != "" {
		return folder
	}
	return s.cfg.DefaultFolder
}

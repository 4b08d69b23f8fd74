package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jmunts-adl/screenshot-service/internal/screenshot"
	"github.com/jmunts-adl/screenshot-service/internal/storage"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}

type fakeCapturer struct {
	result screenshot.CaptureResult
	err    error
	calls  int
}

func (f *fakeCapturer) Capture(_ context.Context, _ screenshot.CaptureRequest) (screenshot.CaptureResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeRenderer struct {
	data        []byte
	contentType string
	err         error
	gotWaitFor  string
}

func (f *fakeRenderer) Take(_ context.Context, _, waitFor string, _ int) ([]byte, string, error) {
	f.gotWaitFor = waitFor
	return f.data, f.contentType, f.err
}

func newTestService(capturer Capturer, renderer Renderer, backend storage.Backend) *Service {
	return NewService(capturer, renderer, backend, Config{
		DownloadTimeout: 5 * time.Second,
		DefaultFolder:   "screenshots",
	}, zap.NewNop())
}

func serveImage(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUploadFromURLDerivesKey(t *testing.T) {
	t.Parallel()

	srv := serveImage(t, http.StatusOK, jpegBytes)
	backend := storage.NewMemoryBackend()
	svc := newTestService(&fakeCapturer{}, nil, backend)

	url, err := svc.UploadFromURL(context.Background(), srv.URL+"/shots/a.jpeg", "", "")
	require.NoError(t, err)

	wantKey := storage.DeriveKey(srv.URL + "/shots/a.jpeg")
	require.Equal(t, "memory://screenshots/"+wantKey, url)

	stored, ok := backend.Object("screenshots/" + wantKey)
	require.True(t, ok)
	require.Equal(t, jpegBytes, stored)
}

func TestUploadFromURLExplicitKeyAndFolder(t *testing.T) {
	t.Parallel()

	srv := serveImage(t, http.StatusOK, jpegBytes)
	backend := storage.NewMemoryBackend()
	svc := newTestService(&fakeCapturer{}, nil, backend)

	url, err := svc.UploadFromURL(context.Background(), srv.URL, "daily", "page.jpg")
	require.NoError(t, err)
	require.Equal(t, "memory://daily/page.jpg", url)
}

func TestUploadFromURLNon2xx(t *testing.T) {
	t.Parallel()

	srv := serveImage(t, http.StatusNotFound, []byte("gone"))
	svc := newTestService(&fakeCapturer{}, nil, storage.NewMemoryBackend())

	_, err := svc.UploadFromURL(context.Background(), srv.URL, "", "")
	var dlErr *screenshot.DownloadError
	require.ErrorAs(t, err, &dlErr)
	require.Equal(t, http.StatusNotFound, dlErr.StatusCode)
	require.Equal(t, "gone", dlErr.Body)
}

func TestUploadFromURLRejectsErrorBody(t *testing.T) {
	t.Parallel()

	srv := serveImage(t, http.StatusOK, []byte(`{"error":"expired"}`))
	backend := storage.NewMemoryBackend()
	svc := newTestService(&fakeCapturer{}, nil, backend)

	_, err := svc.UploadFromURL(context.Background(), srv.URL, "", "")
	var invErr *screenshot.InvalidResponseError
	require.ErrorAs(t, err, &invErr)
	require.Equal(t, 0, backend.Len())
}

func TestUploadFromURLUnreachableHost(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeCapturer{}, nil, storage.NewMemoryBackend())

	_, err := svc.UploadFromURL(context.Background(), "http://127.0.0.1:1/none", "", "")
	var dlErr *screenshot.DownloadError
	require.ErrorAs(t, err, &dlErr)
}

func TestCaptureAndUpload(t *testing.T) {
	t.Parallel()

	srv := serveImage(t, http.StatusOK, jpegBytes)
	capturer := &fakeCapturer{result: screenshot.CaptureResult{
		ScreenshotURL: srv.URL + "/hosted.jpeg",
		Tier:          screenshot.ProxyTierBasic,
	}}
	backend := storage.NewMemoryBackend()
	svc := newTestService(capturer, nil, backend)

	uploadedURL, screenshotURL, err := svc.CaptureAndUpload(context.Background(), "https://target.example.com", "", "")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/hosted.jpeg", screenshotURL)
	require.Contains(t, uploadedURL, "memory://screenshots/")
	require.Equal(t, 1, capturer.calls)
	require.Equal(t, 1, backend.Len())
}

func TestCaptureAndUploadCaptureFailure(t *testing.T) {
	t.Parallel()

	capErr := errors.New("both proxy tiers failed")
	backend := storage.NewMemoryBackend()
	svc := newTestService(&fakeCapturer{err: capErr}, nil, backend)

	_, _, err := svc.CaptureAndUpload(context.Background(), "https://target.example.com", "", "")
	require.ErrorIs(t, err, capErr)
	require.Equal(t, 0, backend.Len())
}

func TestRenderAndUpload(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{data: jpegBytes, contentType: "image/jpeg"}
	backend := storage.NewMemoryBackend()
	svc := newTestService(&fakeCapturer{}, renderer, backend)

	url, err := svc.RenderAndUpload(context.Background(), "https://example.com/page", "#main", "renders")
	require.NoError(t, err)
	require.Equal(t, "#main", renderer.gotWaitFor)

	wantKey := storage.DeriveKey("https://example.com/page")
	require.Equal(t, "memory://renders/"+wantKey, url)
}

func TestRenderAndUploadWithoutRenderer(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeCapturer{}, nil, storage.NewMemoryBackend())

	_, err := svc.RenderAndUpload(context.Background(), "https://example.com", "", "")
	var cfgErr *screenshot.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "capture.zenrows.api_key", cfgErr.Setting)
}

func TestRenderAndUploadRendererFailure(t *testing.T) {
	t.Parallel()

	renderErr := &screenshot.ProviderError{Provider: "zenrows", StatusCode: 422}
	svc := newTestService(&fakeCapturer{}, &fakeRenderer{err: renderErr}, storage.NewMemoryBackend())

	_, err := svc.RenderAndUpload(context.Background(), "https://example.com", "", "")
	var provErr *screenshot.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, 422, provErr.StatusCode)
}

func TestCaptureURLDelegates(t *testing.T) {
	t.Parallel()

	capturer := &fakeCapturer{result: screenshot.CaptureResult{
		ScreenshotURL: "https://cdn.example.com/a.jpeg",
		Tier:          screenshot.ProxyTierAdvanced,
	}}
	svc := newTestService(capturer, nil, storage.NewMemoryBackend())

	result, err := svc.CaptureURL(context.Background(), "https://target.example.com", "")
	require.NoError(t, err)
	require.Equal(t, screenshot.ProxyTierAdvanced, result.Tier)
	require.Equal(t, 1, capturer.calls)
}

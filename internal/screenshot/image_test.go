package screenshot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSniffImageJPEG(t *testing.T) {
	t.Parallel()

	contentType, err := SniffImage("test", []byte{0xFF, 0xD8, 0xFF, 0xE0})
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", contentType)
}

func TestSniffImagePNG(t *testing.T) {
	t.Parallel()

	contentType, err := SniffImage("test", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A})
	require.NoError(t, err)
	require.Equal(t, "image/png", contentType)
}

func TestSniffImageEmpty(t *testing.T) {
	t.Parallel()

	_, err := SniffImage("test", nil)
	var invErr *InvalidResponseError
	require.ErrorAs(t, err, &invErr)
	require.Equal(t, "empty response body", invErr.Detail)
}

func TestSniffImageErrorBodies(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`{"error":"blocked"}`, `<html><body>403</body></html>`} {
		_, err := SniffImage("test", []byte(body))
		var invErr *InvalidResponseError
		require.ErrorAs(t, err, &invErr, "body %q", body)
		require.Contains(t, invErr.Payload, body[:10])
	}
}

func TestSniffImageErrorPayloadTruncated(t *testing.T) {
	t.Parallel()

	long := "{" + strings.Repeat("x", 2000)
	_, err := SniffImage("test", []byte(long))
	var invErr *InvalidResponseError
	require.ErrorAs(t, err, &invErr)
	require.Len(t, invErr.Payload, 500)
}

func TestSniffImageUnknownFormat(t *testing.T) {
	t.Parallel()

	contentType, err := SniffImage("test", []byte{0x52, 0x49, 0x46, 0x46})
	require.NoError(t, err)
	if contentType != "" {
		t.Fatalf("expected empty content type for unknown magic, got %q", contentType)
	}
}

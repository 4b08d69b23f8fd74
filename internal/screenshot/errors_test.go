package screenshot

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestProviderErrorMessages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  *ProviderError
		want string
	}{
		{
			name: "message and body",
			err:  &ProviderError{Provider: "screenshotone", Message: "API error 403", Body: "denied"},
			want: "screenshotone: API error 403: denied",
		},
		{
			name: "wrapped error only",
			err:  &ProviderError{Provider: "zenrows", Err: errors.New("dial tcp: timeout")},
			want: "zenrows: dial tcp: timeout",
		},
		{
			name: "status only",
			err:  &ProviderError{Provider: "zenrows", StatusCode: 502},
			want: "zenrows: request failed with status 502",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("connection reset")
	err := &ProviderError{Provider: "zenrows", Err: inner}
	require.ErrorIs(t, err, inner)
}

func TestDownloadErrorMessages(t *testing.T) {
	t.Parallel()

	withErr := &DownloadError{URL: "https://cdn.example.com/a.jpeg", Err: errors.New("timeout")}
	require.Equal(t, "download https://cdn.example.com/a.jpeg: timeout", withErr.Error())

	withStatus := &DownloadError{URL: "https://cdn.example.com/a.jpeg", StatusCode: 404, Body: "not found"}
	require.Equal(t, "download https://cdn.example.com/a.jpeg: status 404: not found", withStatus.Error())
}

func TestUploadErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("access denied")
	err := &UploadError{Backend: "s3", Err: inner}
	require.ErrorIs(t, err, inner)
	require.Contains(t, err.Error(), "s3 upload failed")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc", Truncate("abc", 5))
	require.Equal(t, "abcde", Truncate("abcdefgh", 5))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	// "héllo": the é is two bytes; a cut at byte 2 would split it.
	got := Truncate("héllo", 2)
	require.Equal(t, "h", got)
	require.True(t, utf8.ValidString(got))

	// Cut landing exactly on a rune boundary keeps the full rune.
	got = Truncate("héllo", 3)
	require.Equal(t, "hé", got)

	long := strings.Repeat("日", 300) // 3 bytes each, 900 bytes total
	got = Truncate(long, 500)
	require.True(t, utf8.ValidString(got))
	require.LessOrEqual(t, len(got), 500)
	require.Equal(t, 498, len(got))
}

package screenshot

import (
	"fmt"
	"unicode/utf8"
)

// ConfigError reports a missing or invalid credential/setting. It is
// raised fast at construction time and never retried.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// ProviderError reports a network failure or non-2xx response from a
// capture or storage API. The capture orchestrator escalates the proxy
// tier exactly once on these; everywhere else they surface as-is.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		if e.Err != nil {
			msg = e.Err.Error()
		} else {
			msg = fmt.Sprintf("request failed with status %d", e.StatusCode)
		}
	}
	if e.Body != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, msg, e.Body)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// InvalidResponseError means the provider answered with a success status
// but the payload was unusable: no URL field, bytes that fail the image
// magic-number check, or an embedded error body. Not retried.
type InvalidResponseError struct {
	Provider string
	Detail   string
	Payload  string
}

func (e *InvalidResponseError) Error() string {
	if e.Payload != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Detail, e.Payload)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Detail)
}

// DownloadError means fetching image bytes from a hosted URL failed.
type DownloadError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("download %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// UploadError means the storage backend rejected the write.
type UploadError struct {
	Backend string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s upload failed: %v", e.Backend, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Truncate bounds diagnostic payloads included in error messages,
// backing off to a rune boundary so the cut never leaves invalid UTF-8.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

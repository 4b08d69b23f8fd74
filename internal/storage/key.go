package storage

import (
	"regexp"
	"strings"
)

const (
	maxKeyLength        = 200
	maxDerivedKeyLength = 100
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._/-]+`)

// SanitizeKey strips characters that are unsafe in object keys and caps
// the length.
func SanitizeKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = unsafeKeyChars.ReplaceAllString(key, "")
	if len(key) > maxKeyLength {
		key = key[:maxKeyLength]
	}
	if key == "" {
		return "image"
	}
	return key
}

// DeriveKey builds a deterministic object key from a source URL: scheme
// stripped, path separators flattened, length bounded. Repeated uploads
// of the same source reuse the same key; there is no content dedup.
func DeriveKey(sourceURL string) string {
	key := strings.TrimPrefix(sourceURL, "https://")
	key = strings.TrimPrefix(key, "http://")
	key = strings.ReplaceAll(key, "/", "_")
	if len(key) > maxDerivedKeyLength {
		key = key[:maxDerivedKeyLength]
	}
	return SanitizeKey(key)
}

// JoinKey assembles path segments into an object key, dropping empty
// segments and duplicate slashes.
func JoinKey(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

func extensionFor(contentType string) string {
	if strings.Contains(strings.ToLower(contentType), "jpeg") {
		return "jpg"
	}
	return "png"
}

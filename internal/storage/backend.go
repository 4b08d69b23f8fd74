// Package storage implements the image upload backends behind a common
// interface. This abstraction keeps the service independent of a
// specific provider (Cloudinary, or S3 fronted by CloudFront).
package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jmunts-adl/screenshot-service/internal/screenshot"
)

// UploadOptions controls where an image lands.
type UploadOptions struct {
	// Folder is an optional path prefix (e.g. "screenshots/2026/08").
	Folder string
	// Key is the object key (filename). A unique key is generated when
	// absent.
	Key string
	// ContentType defaults to image/jpeg.
	ContentType string
}

// Backend uploads image bytes and returns a durable public URL.
type Backend interface {
	// Name identifies the backend in logs, metrics and errors.
	Name() string
	// Upload writes data and returns the public URL it is served from.
	Upload(ctx context.Context, data []byte, opts UploadOptions) (string, error)
}

// Config selects and parameterizes a backend.
type Config struct {
	Provider   string
	Cloudinary CloudinaryConfig
	S3         S3Config
}

// CloudinaryConfig holds the Cloudinary credential triple.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// S3Config holds S3 settings plus the CloudFront domain that makes the
// bucket publicly reachable.
type S3Config struct {
	Region           string
	Bucket           string
	CloudFrontDomain string
	Prefix           string
	// AccessKeyID/SecretAccessKey are optional; the default AWS
	// credential chain applies when they are empty.
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the S3 endpoint for tests and S3-compatible
	// stores.
	Endpoint string
}

// New returns the backend named by cfg.Provider. Unrecognized names fail
// closed rather than defaulting to either built-in backend.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "cloudinary":
		return NewCloudinaryBackend(cfg.Cloudinary, logger)
	case "s3", "aws":
		return NewS3Backend(ctx, cfg.S3, logger)
	case "memory":
		// Dry-run backend: images are held in memory and discarded.
		return NewMemoryBackend(), nil
	default:
		return nil, &screenshot.ConfigError{
			Setting: "storage.provider",
			Reason:  fmt.Sprintf("unknown provider %q, use cloudinary or s3", cfg.Provider),
		}
	}
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/jmunts-adl/screenshot-service/internal/screenshot"
)

// cloudinaryUploader is the part of the Cloudinary SDK the backend
// calls; *uploader.API satisfies it.
type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryBackend uploads to Cloudinary's managed media API.
type CloudinaryBackend struct {
	uploader cloudinaryUploader
	logger   *zap.Logger
}

// NewCloudinaryBackend validates the credential triple at construction
// time and configures the SDK once.
func NewCloudinaryBackend(cfg CloudinaryConfig, logger *zap.Logger) (*CloudinaryBackend, error) {
	if cfg.CloudName == "" {
		return nil, &screenshot.ConfigError{
			Setting: "storage.cloudinary.cloud_name",
			Reason:  "cloud name is required when the cloudinary provider is selected",
		}
	}
	if cfg.APIKey == "" {
		return nil, &screenshot.ConfigError{
			Setting: "storage.cloudinary.api_key",
			Reason:  "api key is required when the cloudinary provider is selected",
		}
	}
	if cfg.APISecret == "" {
		return nil, &screenshot.ConfigError{
			Setting: "storage.cloudinary.api_secret",
			Reason:  "api secret is required when the cloudinary provider is selected",
		}
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("configure cloudinary: %w", err)
	}
	return &CloudinaryBackend{uploader: &cld.Upload, logger: logger}, nil
}

// Name implements Backend.
func (b *CloudinaryBackend) Name() string { return "cloudinary" }

// Upload writes data as an image asset and returns the secure delivery
// URL Cloudinary reports back.
func (b *CloudinaryBackend) Upload(ctx context.Context, data []byte, opts UploadOptions) (string, error) {
	params := uploader.UploadParams{ResourceType: "image"}
	if opts.Folder != "" {
		params.Folder = opts.Folder
	}
	if opts.Key != "" {
		params.PublicID = opts.Key
	}

	result, err := b.uploader.Upload(ctx, bytes.NewReader(data), params)
	if err != nil {
		return "", &screenshot.UploadError{Backend: b.Name(), Err: err}
	}
	// The SDK reports API-level failures with a nil error and the message
	// in the result body.
	if result.Error.Message != "" {
		return "", &screenshot.UploadError{
			Backend: b.Name(),
			Err:     errors.New(result.Error.Message),
		}
	}

	uploadedURL := result.SecureURL
	if uploadedURL == "" {
		uploadedURL = result.URL
	}
	if uploadedURL == "" {
		return "", &screenshot.UploadError{
			Backend: b.Name(),
			Err:     errors.New("upload succeeded but no URL returned"),
		}
	}

	b.logger.Info("image uploaded to cloudinary", zap.String("url", uploadedURL))
	return uploadedURL, nil
}

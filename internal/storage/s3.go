package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	idgen "github.com/jmunts-adl/screenshot-service/internal/id/uuid"
	"github.com/jmunts-adl/screenshot-service/internal/screenshot"
)

// s3API is the subset of the S3 client the backend uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type idGenerator interface {
	NewV4ID() (string, error)
}

// S3Backend uploads to S3 and returns CloudFront URLs. Object storage
// without a CDN front-end is not publicly reachable, so the CloudFront
// domain is mandatory.
type S3Backend struct {
	client s3API
	bucket string
	domain string
	prefix string
	idGen  idGenerator
	logger *zap.Logger
}

// NewS3Backend validates the configuration and builds the S3 client.
// Credentials fall back to the default AWS chain when not set.
func NewS3Backend(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Backend, error) {
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, &screenshot.ConfigError{
			Setting: "storage.s3.region",
			Reason:  "region is required when the s3 provider is selected",
		}
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, &screenshot.ConfigError{
			Setting: "storage.s3.bucket",
			Reason:  "bucket is required when the s3 provider is selected",
		}
	}
	domain := normalizeDomain(cfg.CloudFrontDomain)
	if domain == "" {
		return nil, &screenshot.ConfigError{
			Setting: "storage.s3.cloudfront_domain",
			Reason:  "CloudFront domain is required (e.g. d123abc.cloudfront.net or cdn.example.com)",
		}
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Backend{
		client: client,
		bucket: strings.TrimSpace(cfg.Bucket),
		domain: domain,
		prefix: strings.Trim(cfg.Prefix, "/"),
		idGen:  idgen.NewUUIDGenerator(),
		logger: logger,
	}, nil
}

// Name implements Backend.
func (b *S3Backend) Name() string { return "s3" }

// Upload writes data under {prefix}/{folder}/{key} and returns the
// CloudFront delivery URL.
func (b *S3Backend) Upload(ctx context.Context, data []byte, opts UploadOptions) (string, error) {
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := opts.Key
	if key == "" {
		id, err := b.idGen.NewV4ID()
		if err != nil {
			return "", fmt.Errorf("generate object key: %w", err)
		}
		key = fmt.Sprintf("%s.%s", strings.ReplaceAll(id, "-", ""), extensionFor(contentType))
	} else {
		key = SanitizeKey(key)
	}
	objectKey := JoinKey(b.prefix, opts.Folder, key)

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", &screenshot.UploadError{
			Backend: b.Name(),
			Err:     fmt.Errorf("put object %q in bucket %q: %w", objectKey, b.bucket, err),
		}
	}

	uploadedURL := b.domain + "/" + objectKey
	b.logger.Info("image uploaded to s3",
		zap.String("key", objectKey),
		zap.String("url", uploadedURL),
	)
	return uploadedURL, nil
}

func normalizeDomain(domain string) string {
	domain = strings.TrimRight(strings.TrimSpace(domain), "/")
	if domain == "" {
		return ""
	}
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	if domain == "https://" || domain == "http://" {
		return ""
	}
	return domain
}

// Package screenshotone calls the ScreenshotOne rendering API. The API
// renders the target page server-side and answers with a JSON document
// pointing at a hosted image.
package screenshotone

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/jmunts-adl/screenshot-service/internal/screenshot"
)

const (
	providerName    = "screenshotone"
	defaultEndpoint = "https://api.screenshotone.com/take"

	// Cache rendered shots on the provider side for 29 days.
	cacheTTLSeconds = "2505600"
)

// Challenge phrases that mark a blocked render as a failure on the
// provider side instead of a "successful" screenshot of a captcha wall.
var failIfContentContains = []string{"Verify you are human", "blocked"}

// Config parameterizes the client. Endpoint is overridable for tests.
type Config struct {
	AccessKey string
	Endpoint  string
	Timeout   time.Duration
}

// Client is a thin, reusable ScreenshotOne API client.
type Client struct {
	cfg    Config
	http   *resty.Client
	logger *zap.Logger
}

// New validates credentials up front and builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.AccessKey == "" {
		return nil, &screenshot.ConfigError{
			Setting: "capture.screenshotone.access_key",
			Reason:  "access key is required",
		}
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   resty.New().SetTimeout(cfg.Timeout),
		logger: logger,
	}, nil
}

// Take requests a screenshot of targetURL and returns the hosted image
// URL. An empty proxy means the provider egresses directly.
func (c *Client) Take(ctx context.Context, targetURL, proxy string) (string, error) {
	params := url.Values{}
	params.Set("access_key", c.cfg.AccessKey)
	params.Set("url", targetURL)
	params.Set("response_type", "json")
	params.Set("format", "jpeg")
	params.Set("image_quality", "70")
	params.Set("cache", "true")
	params.Set("cache_ttl", cacheTTLSeconds)
	params["fail_if_content_contains"] = failIfContentContains
	if proxy != "" {
		params.Set("proxy", proxy)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(c.cfg.Endpoint)
	if err != nil {
		return "", &screenshot.ProviderError{Provider: providerName, Err: fmt.Errorf("take request: %w", err)}
	}

	body := resp.Body()
	// The API may answer JSON even without a JSON Content-Type, so always
	// attempt to decode.
	var payload map[string]any
	_ = json.Unmarshal(body, &payload)

	if resp.StatusCode() != http.StatusOK {
		return "", c.apiError(resp.StatusCode(), payload, body)
	}

	for _, field := range []string{"screenshot", "screenshot_url", "cache_url"} {
		if v, ok := payload[field].(string); ok && v != "" {
			c.logger.Info("screenshot url obtained",
				zap.String("target_url", targetURL),
				zap.Bool("proxied", proxy != ""),
			)
			return v, nil
		}
	}
	return "", &screenshot.InvalidResponseError{
		Provider: providerName,
		Detail:   "no screenshot URL in response",
		Payload:  screenshot.Truncate(string(body), 500),
	}
}

func (c *Client) apiError(status int, payload map[string]any, body []byte) error {
	msg := fmt.Sprintf("API error %d", status)
	if payload != nil {
		if v, ok := payload["error_message"].(string); ok && v != "" {
			msg += ": " + v
		}
		if v, ok := payload["returned_status_code"]; ok {
			msg += fmt.Sprintf(" (target site returned %v)", v)
		}
		if v, ok := payload["error_code"]; ok {
			msg += fmt.Sprintf(" [error code: %v]", v)
		}
	}
	return &screenshot.ProviderError{
		Provider:   providerName,
		StatusCode: status,
		Message:    msg,
		Body:       screenshot.Truncate(string(body), 500),
	}
}

// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Capture CaptureConfig `mapstructure:"capture"`
	Storage StorageConfig `mapstructure:"storage"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines the bearer-token check on the API.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

// CaptureConfig groups capture provider credentials and proxy tiers.
type CaptureConfig struct {
	ScreenshotOne ScreenshotOneConfig `mapstructure:"screenshotone"`
	ZenRows       ZenRowsConfig       `mapstructure:"zenrows"`
	Proxy         ProxyConfig         `mapstructure:"proxy"`
}

// ScreenshotOneConfig configures the hosted-URL capture provider.
type ScreenshotOneConfig struct {
	AccessKey      string `mapstructure:"access_key"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ZenRowsConfig configures the raw-byte rendering provider. Optional;
// the rendering endpoint is disabled when the key is empty.
type ZenRowsConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ProxyConfig holds the two proxy tiers used for capture escalation.
type ProxyConfig struct {
	Basic          string `mapstructure:"basic"`
	Advanced       string `mapstructure:"advanced"`
	BasicPortRange int    `mapstructure:"basic_port_range"`
}

// StorageConfig selects and parameterizes the upload backend.
type StorageConfig struct {
	Provider   string           `mapstructure:"provider"`
	Folder     string           `mapstructure:"folder"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	S3         S3Config         `mapstructure:"s3"`
}

// CloudinaryConfig is the Cloudinary credential triple.
type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

// S3Config configures the S3 bucket and its CloudFront delivery domain.
type S3Config struct {
	Region           string `mapstructure:"region"`
	Bucket           string `mapstructure:"bucket"`
	CloudFrontDomain string `mapstructure:"cloudfront_domain"`
	Prefix           string `mapstructure:"prefix"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	Endpoint         string `mapstructure:"endpoint"`
}

// HTTPConfig configures outbound and inbound HTTP timeouts.
type HTTPConfig struct {
	DownloadTimeoutSeconds int `mapstructure:"download_timeout_seconds"`
	RequestTimeoutSeconds  int `mapstructure:"request_timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCREENSHOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.enabled", true)
	// Credential keys are registered so environment-only values survive
	// Unmarshal; viper ignores env vars for keys it has never seen.
	v.SetDefault("auth.token", "")
	v.SetDefault("capture.screenshotone.access_key", "")
	v.SetDefault("capture.screenshotone.endpoint", "")
	v.SetDefault("capture.zenrows.api_key", "")
	v.SetDefault("capture.zenrows.endpoint", "")
	v.SetDefault("capture.proxy.basic", "")
	v.SetDefault("capture.proxy.advanced", "")
	v.SetDefault("storage.folder", "")
	v.SetDefault("storage.cloudinary.cloud_name", "")
	v.SetDefault("storage.cloudinary.api_key", "")
	v.SetDefault("storage.cloudinary.api_secret", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.cloudfront_domain", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("capture.screenshotone.timeout_seconds", 60)
	v.SetDefault("capture.zenrows.timeout_seconds", 60)
	v.SetDefault("capture.proxy.basic_port_range", 10)
	v.SetDefault("storage.provider", "cloudinary")
	v.SetDefault("http.download_timeout_seconds", 30)
	v.SetDefault("http.request_timeout_seconds", 120)
	v.SetDefault("logging.development", true)
}

// Recognized storage provider names. Anything else fails closed.
var knownProviders = map[string]bool{
	"cloudinary": true,
	"s3":         true,
	"aws":        true,
	"memory":     true,
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		return fmt.Errorf("auth.token must be set when auth is enabled")
	}
	if !knownProviders[strings.ToLower(strings.TrimSpace(c.Storage.Provider))] {
		return fmt.Errorf("storage.provider %q is not recognized, use cloudinary or s3", c.Storage.Provider)
	}
	if c.HTTP.DownloadTimeoutSeconds <= 0 {
		return fmt.Errorf("http.download_timeout_seconds must be > 0")
	}
	if c.HTTP.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("http.request_timeout_seconds must be > 0")
	}
	if c.Capture.Proxy.BasicPortRange <= 0 {
		return fmt.Errorf("capture.proxy.basic_port_range must be > 0")
	}
	return nil
}

// DownloadTimeout converts the download timeout config into a duration.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.HTTP.DownloadTimeoutSeconds) * time.Second
}

// RequestTimeout bounds each inbound API request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.RequestTimeoutSeconds) * time.Second
}

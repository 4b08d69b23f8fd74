// Package capture implements the proxy tier escalation policy for
// acquiring screenshots under anti-bot defenses.
package capture

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/jmunts-adl/screenshot-service/internal/metrics"
	"github.com/jmunts-adl/screenshot-service/internal/screenshot"
)

// URLTaker is the provider call that resolves a hosted screenshot URL.
type URLTaker interface {
	Take(ctx context.Context, targetURL, proxy string) (string, error)
}

// Config holds the proxy tier settings.
type Config struct {
	// BasicProxy is the cheap rotating proxy URL, listed without a port.
	BasicProxy string
	// AdvancedProxy is the paid unblocking proxy used after escalation.
	AdvancedProxy string
	// BasicPortRange is the number of ports behind the basic proxy; one
	// is picked at random per attempt.
	BasicPortRange int
}

// Orchestrator drives capture attempts through the proxy tiers.
//
// Tiers are tried strictly sequentially:
//   - an explicit caller proxy is used directly, no fallback;
//   - otherwise the basic tier goes first and escalates to the advanced
//     tier on any failure, exactly once.
type Orchestrator struct {
	provider URLTaker
	cfg      Config
	logger   *zap.Logger
	randN    func(n int) int
}

// NewOrchestrator builds an Orchestrator around a provider client.
func NewOrchestrator(provider URLTaker, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.BasicPortRange <= 0 {
		cfg.BasicPortRange = 10
	}
	return &Orchestrator{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		randN:    rand.IntN,
	}
}

// Capture resolves a screenshot URL for req.URL. The returned result
// records the proxy tier that actually produced it.
func (o *Orchestrator) Capture(ctx context.Context, req screenshot.CaptureRequest) (screenshot.CaptureResult, error) {
	targetURL := req.URL
	if req.Proxy != "" {
		return o.attempt(ctx, targetURL, req.Proxy, screenshot.ProxyTierExplicit)
	}

	basicProxy := o.basicProxy()
	basicTier := screenshot.ProxyTierBasic
	if basicProxy == "" {
		basicTier = screenshot.ProxyTierNone
	}
	result, err := o.attempt(ctx, targetURL, basicProxy, basicTier)
	if err == nil {
		return result, nil
	}

	o.logger.Warn("basic proxy attempt failed, escalating",
		zap.String("target_url", targetURL),
		zap.Error(err),
	)

	if o.cfg.AdvancedProxy == "" {
		return screenshot.CaptureResult{}, fmt.Errorf(
			"basic proxy attempt failed and no advanced proxy is configured: %w", err)
	}

	result, retryErr := o.attempt(ctx, targetURL, o.cfg.AdvancedProxy, screenshot.ProxyTierAdvanced)
	if retryErr != nil {
		return screenshot.CaptureResult{}, fmt.Errorf(
			"both proxy tiers failed: basic: %v; advanced: %w", err, retryErr)
	}
	o.logger.Info("advanced proxy succeeded after basic tier failure",
		zap.String("target_url", targetURL))
	return result, nil
}

func (o *Orchestrator) attempt(ctx context.Context, targetURL, proxy string, tier screenshot.ProxyTier) (screenshot.CaptureResult, error) {
	start := time.Now()
	shotURL, err := o.provider.Take(ctx, targetURL, proxy)
	metrics.ObserveCapture(string(tier), err == nil, time.Since(start))
	if err != nil {
		return screenshot.CaptureResult{}, err
	}
	return screenshot.CaptureResult{ScreenshotURL: shotURL, Tier: tier}, nil
}

// basicProxy appends a random port to the basic proxy URL; the
// configured value carries no port and each port maps to a different
// egress IP.
func (o *Orchestrator) basicProxy() string {
	if o.cfg.BasicProxy == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", o.cfg.BasicProxy, o.randN(o.cfg.BasicPortRange)+1)
}

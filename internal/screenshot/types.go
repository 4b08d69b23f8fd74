// Package screenshot defines core types shared across the capture and
// storage subsystems.
package screenshot

// ProxyTier identifies which proxy configuration a capture attempt used.
type ProxyTier string

// Proxy tiers reported in capture results.
const (
	// ProxyTierNone means the provider was called without a proxy.
	ProxyTierNone ProxyTier = "none"
	// ProxyTierBasic is the cheap rotating proxy tried first.
	ProxyTierBasic ProxyTier = "basic"
	// ProxyTierAdvanced is the paid unblocking proxy used after escalation.
	ProxyTierAdvanced ProxyTier = "advanced"
	// ProxyTierExplicit means the caller supplied its own proxy string.
	ProxyTierExplicit ProxyTier = "explicit"
)

// CaptureRequest carries everything needed to request a screenshot.
// Constructed per call, never mutated.
type CaptureRequest struct {
	// URL is the page to capture. Must be a well-formed absolute URL.
	URL string
	// Proxy, when set, is used directly with no tier fallback.
	Proxy string
	// WaitFor is a CSS selector the rendering provider waits for before
	// taking the shot. Only honored by providers that render JavaScript.
	WaitFor string
}

// CaptureResult is the outcome of a successful capture. It is consumed
// once and never persisted.
type CaptureResult struct {
	// ScreenshotURL is the provider-hosted image URL.
	ScreenshotURL string
	// Tier records which proxy tier actually produced the result.
	Tier ProxyTier
}

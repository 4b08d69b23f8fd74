// Package api hosts the HTTP server, middleware, and REST handlers.
// Notable routes:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/capture for a provider-hosted screenshot URL.
//   - POST /v1/capture/upload to capture and relay to the storage backend.
//   - POST /v1/capture/zenrows for the raw-byte rendering path.
//   - POST /v1/upload to relay an already-hosted screenshot.
package api

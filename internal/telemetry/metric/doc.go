// Package metric provides Prometheus metrics for remotectl.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry of connection lifecycle metrics
//   - server.go: Optional HTTP listener exposing /metrics
//
// Metrics include:
//
//   - Status transitions by from/to status
//   - Outbound sends by result
//   - Stale transport notifications by event
//   - Current connection status
package metric

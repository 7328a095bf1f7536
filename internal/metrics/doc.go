// Package metrics exports challenge lifecycle counters to Prometheus.
//
// A [Collector] subscribes to the event bus and never touches the
// coordinator directly. [Serve] exposes the registry on /metrics.
package metrics

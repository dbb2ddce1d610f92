// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for component reloads and tree mutations.
//
// Metrics is a reconcile.Observer, so it can be attached to a reconciler
// directly:
//
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	r := reconcile.New(host, m)
//
// Metrics collected:
//   - weft_mutations_total: Counter of mutations by op
//   - weft_reloads_total: Counter of reloads by status (ok, error, exceeded)
//   - weft_reload_duration_seconds: Histogram of reload duration
//   - weft_reload_requests_total: Counter of reload requests by result
//     (scheduled, coalesced)
//   - weft_reload_depth_exceeded_total: Counter of depth guard trips
//
// All methods are safe to call on a nil *Metrics or *Tracer.
package telemetry

// Package otel exports tokenauth engine metrics through an OpenTelemetry
// Meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter family,
// with outcome and reason attributes distinguishing its series, and
// observable gauges for the decode latency buckets keyed by an le attribute.
// A single callback reads [tokenauth.Engine.MetricsSnapshot] on each
// collection. Callers own the MeterProvider.
package otel

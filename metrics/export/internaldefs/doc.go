// Package internaldefs describes the exported metric families and resolves
// them against an engine snapshot, so the Prometheus and OpenTelemetry
// exporters publish the same series under the same labels.
package internaldefs

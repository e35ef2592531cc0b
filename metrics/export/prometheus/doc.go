// Package prometheus renders tokenauth engine metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps an [tokenauth.Engine] and exposes an
// [http.Handler]. Issue attempts are split by an outcome label and rejected
// credentials by a reason label, for example
//
//	tokenauth_authenticate_failures_total{reason="expired"} 3
//
// Nothing is registered in a global registry; callers mount the Handler
// themselves.
package prometheus

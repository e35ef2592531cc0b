// Package tokenauth issues HS512-signed access tokens for authenticated
// principals and turns inbound requests back into verified principals.
//
// A token carries the subject, the granted authorities and the ids of the
// resources the subject may access. It travels in the Authorization header
// as "Bearer <token>", in the Authorization cookie, or in the q-token
// parameter. Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// tokenauth is the public surface. It exposes [Engine], [Builder], [Config]
// and value types. Signing lives in package jwt, request field handling in
// package transport, and audit buffering under internal/.
//
// # What this package must NOT do
//
//   - Verify passwords or any other credential.
//   - Decide whether a principal may perform an action.
//   - Keep per-token server state; a token is valid until it expires.
//   - Log or audit raw tokens or the secret.
package tokenauth

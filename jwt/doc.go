// Package jwt encodes principals into HS512-signed access tokens and verifies them back,
// with strict validation semantics suitable for per-request authentication.
//
// # Claims
//
// Tokens carry sub, permissions (comma-joined authorities), courses (comma-joined
// resource ids, omitted when empty), iat, exp and a random jti.
//
// # Verification
//
// The verifier is pinned to HS512 and the configured secret; the token header never
// selects the algorithm or the key. Every failure wraps one of the sentinels in
// errors.go and yields no partial principal.
//
// # What this package must NOT do
//
//   - Perform I/O or read request state.
//   - Hold mutable state after NewCodec returns.
package jwt

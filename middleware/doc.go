// Package middleware adapts tokenauth.Engine to net/http handler chains.
//
// # Middleware
//
//   - [Authenticate] installs the request's principal, if any, and always continues.
//   - [RequirePrincipal] rejects anonymous requests with a fixed 401.
//   - [Guard] combines both.
//
// Handlers read the principal with tokenauth.PrincipalFromContext.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Reveal why a token was rejected.
//   - Make authorization decisions beyond "has a principal".
package middleware

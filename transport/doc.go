// Package transport reads candidate tokens from inbound HTTP requests and
// writes issued tokens onto responses.
//
// Inbound precedence is fixed: the Authorization header, then the
// Authorization cookie, then the q-token query or form parameter. The first
// field present wins even when its content later fails verification.
//
// The package never verifies anything; it only moves strings.
package transport

package jwt

import "errors"

var (
	// ErrConfiguration is returned when the codec has no usable secret or an invalid window.
	ErrConfiguration = errors.New("token codec not configured")
	// ErrMalformedToken is returned when the token is not a structurally valid compact JWS.
	ErrMalformedToken = errors.New("malformed token")
	// ErrSignatureInvalid is returned when signature verification fails or the algorithm is not HS512.
	ErrSignatureInvalid = errors.New("invalid token signature")
	// ErrTokenExpired is returned when a correctly signed token is past its expiration.
	ErrTokenExpired = errors.New("token expired")
	// ErrMissingSubject is returned when a principal or a verified token carries no subject.
	ErrMissingSubject = errors.New("token subject missing")
	// ErrMalformedClaim is returned when a claim value cannot be interpreted.
	ErrMalformedClaim = errors.New("malformed token claim")
)

package tokenauth

import (
	"errors"

	"github.com/qplayer/tokenauth/jwt"
	"github.com/qplayer/tokenauth/permission"
)

// Token verification failures. They are the jwt package sentinels, so
// errors.Is works against either name.
var (
	ErrConfiguration    = jwt.ErrConfiguration
	ErrMalformedToken   = jwt.ErrMalformedToken
	ErrSignatureInvalid = jwt.ErrSignatureInvalid
	ErrTokenExpired     = jwt.ErrTokenExpired
	ErrMissingSubject   = jwt.ErrMissingSubject
	ErrMalformedClaim   = jwt.ErrMalformedClaim
)

var (
	// ErrNoCredentials is returned when the request offers no token in any field.
	ErrNoCredentials = errors.New("no credentials offered")
	// ErrUnsupportedScheme is returned when the header or cookie value does not carry the Bearer prefix.
	ErrUnsupportedScheme = errors.New("unsupported authorization scheme")
	// ErrUnknownAuthority is returned when issuing an authority the registry does not know.
	ErrUnknownAuthority = permission.ErrUnknownPermission
	// ErrEngineNotReady is returned by methods called on a nil Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Stable failure labels used in metrics, audit events and logs.
const (
	ReasonNone              = ""
	ReasonNoCredentials     = "no_credentials"
	ReasonUnsupportedScheme = "unsupported_scheme"
	ReasonMalformedToken    = "malformed_token"
	ReasonSignatureInvalid  = "signature_invalid"
	ReasonExpired           = "expired"
	ReasonMissingSubject    = "missing_subject"
	ReasonMalformedClaim    = "malformed_claim"
	ReasonUnknownAuthority  = "unknown_authority"
	ReasonConfiguration     = "configuration"
	ReasonEngineNotReady    = "engine_not_ready"
	ReasonInternal          = "internal"
)

// FailureReason maps err to one of the Reason labels. It returns ReasonNone
// for a nil error.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrNoCredentials):
		return ReasonNoCredentials
	case errors.Is(err, ErrUnsupportedScheme):
		return ReasonUnsupportedScheme
	case errors.Is(err, ErrSignatureInvalid):
		return ReasonSignatureInvalid
	case errors.Is(err, ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, ErrMissingSubject):
		return ReasonMissingSubject
	case errors.Is(err, ErrMalformedClaim):
		return ReasonMalformedClaim
	case errors.Is(err, ErrMalformedToken):
		return ReasonMalformedToken
	case errors.Is(err, ErrUnknownAuthority):
		return ReasonUnknownAuthority
	case errors.Is(err, ErrConfiguration):
		return ReasonConfiguration
	case errors.Is(err, ErrEngineNotReady):
		return ReasonEngineNotReady
	default:
		return ReasonInternal
	}
}

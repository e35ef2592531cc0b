package tokenauth

import (
	"time"

	"github.com/qplayer/tokenauth/jwt"
	"github.com/qplayer/tokenauth/principal"
	"github.com/qplayer/tokenauth/transport"
)

// Principal is the verified identity carried by a token.
type Principal = principal.Principal

// Claims is the raw verified claim set of a token.
type Claims = jwt.Claims

// CredentialSource identifies which request field supplied a token.
type CredentialSource = transport.Source

const (
	SourceNone   = transport.SourceNone
	SourceHeader = transport.SourceHeader
	SourceCookie = transport.SourceCookie
	SourceParam  = transport.SourceParam
)

// IssuedToken describes a freshly signed token.
type IssuedToken struct {
	Token     string
	TokenID   string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewPrincipal returns a Principal with normalized authorities.
func NewPrincipal(subject string, authorities []string, resourceIDs []int64) Principal {
	return principal.New(subject, authorities, resourceIDs)
}

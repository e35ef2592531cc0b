package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/qplayer/tokenauth/principal"
)

// DefaultValidityWindow is the lifetime of an issued token unless configured otherwise.
const DefaultValidityWindow = 10 * 24 * time.Hour

const maxLeeway = 2 * time.Minute

// Config holds the immutable codec settings.
//
// A zero ValidityWindow issues tokens that are already expired; callers that
// want the standard lifetime should use DefaultValidityWindow.
type Config struct {
	Secret         []byte
	ValidityWindow time.Duration
	Leeway         time.Duration
	Now            func() time.Time
}

// Codec encodes principals into HS512-signed tokens and verifies them back.
//
// A Codec is immutable after NewCodec and safe for concurrent use.
type Codec struct {
	config Config
	method jwt.SigningMethod
	parser *jwt.Parser
}

// NewCodec validates cfg and returns a ready Codec. The secret is copied.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("%w: secret is empty", ErrConfiguration)
	}
	if cfg.ValidityWindow < 0 {
		return nil, fmt.Errorf("%w: negative validity window", ErrConfiguration)
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return nil, fmt.Errorf("%w: leeway must be within [0, %s]", ErrConfiguration, maxLeeway)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	cfg.Secret = secret

	method := jwt.SigningMethodHS512
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}

	return &Codec{
		config: cfg,
		method: method,
		parser: jwt.NewParser(options...),
	}, nil
}

// ValidityWindow returns the configured token lifetime.
func (c *Codec) ValidityWindow() time.Duration {
	if c == nil {
		return 0
	}
	return c.config.ValidityWindow
}

// Encode signs p into a compact token.
//
// Authorities are normalized as a set; resource ids are attached only when
// present. Encode fails with ErrMissingSubject for an empty subject and with
// ErrMalformedClaim when an authority contains the claim delimiter.
func (c *Codec) Encode(p principal.Principal) (string, error) {
	token, _, err := c.EncodeClaims(p)
	return token, err
}

// EncodeClaims is Encode that also returns the claim set that was signed.
func (c *Codec) EncodeClaims(p principal.Principal) (string, *Claims, error) {
	if c == nil || len(c.config.Secret) == 0 {
		return "", nil, ErrConfiguration
	}
	if p.Subject == "" {
		return "", nil, ErrMissingSubject
	}

	authorities, err := joinAuthorities(principal.NormalizeAuthorities(p.Authorities))
	if err != nil {
		return "", nil, err
	}

	now := c.config.Now()
	claims := &Claims{
		Authorities: authorities,
		ResourceIDs: joinResourceIDs(p.AccessibleResourceIDs),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.ValidityWindow)),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.config.Secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Principal rebuilds the Principal carried by claims.
func (c *Claims) Principal() (principal.Principal, error) {
	if c == nil || c.Subject == "" {
		return principal.Principal{}, ErrMissingSubject
	}
	return principalFromClaims(c)
}

// Decode verifies token and rebuilds the Principal it carries.
//
// On any failure the zero Principal is returned together with an error that
// wraps one of the package sentinels.
func (c *Codec) Decode(token string) (principal.Principal, error) {
	claims, err := c.DecodeClaims(token)
	if err != nil {
		return principal.Principal{}, err
	}
	return principalFromClaims(claims)
}

// DecodeClaims verifies token and returns its raw claim set.
func (c *Codec) DecodeClaims(token string) (*Claims, error) {
	if c == nil || len(c.config.Secret) == 0 {
		return nil, ErrConfiguration
	}

	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.config.Secret, nil
	})
	if err != nil {
		return nil, c.classify(token, err)
	}
	if !parsed.Valid {
		return nil, ErrSignatureInvalid
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

func principalFromClaims(claims *Claims) (principal.Principal, error) {
	if claims.resourceIDsErr != nil {
		return principal.Principal{}, claims.resourceIDsErr
	}
	ids, err := splitResourceIDs(claims.ResourceIDs)
	if err != nil {
		return principal.Principal{}, err
	}
	return principal.Principal{
		Subject:               claims.Subject,
		Authorities:           principal.NormalizeAuthorities(splitAuthorities(claims.Authorities)),
		AccessibleResourceIDs: ids,
	}, nil
}

// classify maps library errors onto the package sentinels. Signature checks
// come first: an expired forgery is reported as a forgery.
func (c *Codec) classify(token string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		if signatureOnlyMalformed(c.parser, token) {
			return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		return fmt.Errorf("%w: %v", ErrMalformedClaim, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

// signatureOnlyMalformed reports whether header and payload decode and only the
// signature segment is broken.
func signatureOnlyMalformed(parser *jwt.Parser, token string) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	unsigned := token[:strings.LastIndex(token, ".")+1]
	_, _, err := parser.ParseUnverified(unsigned, &Claims{})
	return err == nil
}

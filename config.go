package tokenauth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/qplayer/tokenauth/jwt"
	"github.com/qplayer/tokenauth/transport"
)

// Config groups every engine setting. Build it with DefaultConfig or
// LoadConfig, adjust, then hand it to Builder.WithConfig.
type Config struct {
	Token     TokenConfig
	Transport TransportConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Security  SecurityConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig holds the signing secret and token lifetime.
type TokenConfig struct {
	Secret         []byte
	ValidityWindow time.Duration
	Leeway         time.Duration
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig names the request fields and cookie attributes.
type TransportConfig struct {
	HeaderName     string
	CookieName     string
	ParamName      string
	Prefix         string
	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig toggles hardening checks.
//
// RestrictAuthorities makes Issue reject authority names outside the
// permission catalog unless the Builder supplies its own registry.
type SecurityConfig struct {
	ProductionMode             bool
	RestrictAuthorities        bool
	AllowDeprecatedPermissions bool
}

const (
	minProductionSecretBytes = 64
	maxProductionValidity    = 30 * 24 * time.Hour
	maxLeeway                = 2 * time.Minute
)

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the wire defaults with a 10 day validity window.
// The secret is left empty and must be supplied.
func DefaultConfig() Config {
	t := transport.DefaultConfig()
	return Config{
		Token: TokenConfig{
			ValidityWindow: jwt.DefaultValidityWindow,
		},
		Transport: TransportConfig{
			HeaderName:     t.HeaderName,
			CookieName:     t.CookieName,
			ParamName:      t.ParamName,
			Prefix:         t.Prefix,
			CookiePath:     t.CookiePath,
			CookieSecure:   t.CookieSecure,
			CookieSameSite: t.CookieSameSite,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c TransportConfig) adapterConfig() transport.Config {
	return transport.Config{
		HeaderName:     c.HeaderName,
		CookieName:     c.CookieName,
		ParamName:      c.ParamName,
		Prefix:         c.Prefix,
		CookiePath:     c.CookiePath,
		CookieDomain:   c.CookieDomain,
		CookieSecure:   c.CookieSecure,
		CookieSameSite: c.CookieSameSite,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) == 0 {
		return errors.New("Token Secret must be set")
	}
	if c.Token.ValidityWindow <= 0 {
		return errors.New("Token ValidityWindow must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > maxLeeway {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	// Transport
	if c.Transport.HeaderName == "" || c.Transport.CookieName == "" || c.Transport.ParamName == "" {
		return errors.New("Transport field names must be set")
	}
	if c.Transport.Prefix == "" || strings.ContainsAny(c.Transport.Prefix, " \t") {
		return errors.New("Transport Prefix must be a single non-empty word")
	}
	if c.Transport.CookiePath == "" {
		return errors.New("Transport CookiePath must be set")
	}
	if c.Transport.CookieSameSite == http.SameSiteNoneMode && !c.Transport.CookieSecure {
		return errors.New("Transport SameSite=None requires CookieSecure")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Production hardening
	if c.Security.ProductionMode {
		if len(c.Token.Secret) < minProductionSecretBytes {
			return fmt.Errorf("Token Secret must be at least %d bytes in ProductionMode", minProductionSecretBytes)
		}
		if c.Token.ValidityWindow > maxProductionValidity {
			return errors.New("Token ValidityWindow must be <= 30 days in ProductionMode")
		}
		if !c.Transport.CookieSecure {
			return errors.New("Transport CookieSecure must be true in ProductionMode")
		}
	}

	return nil
}

/*
====================================
ENVIRONMENT
====================================
*/

// ErrConfigLoad wraps failures reading .env files or parsing variables.
var ErrConfigLoad = errors.New("failed to load configuration")

type envConfig struct {
	Secret            string        `env:"APP_SECRET,required,notEmpty,unset"`
	ValidityWindow    time.Duration `env:"TOKEN_VALIDITY" envDefault:"240h"`
	Leeway            time.Duration `env:"TOKEN_LEEWAY" envDefault:"0s"`
	ParamName         string        `env:"TOKEN_PARAM_NAME" envDefault:"q-token"`
	CookieDomain      string        `env:"TOKEN_COOKIE_DOMAIN"`
	CookieSecure      bool          `env:"TOKEN_COOKIE_SECURE" envDefault:"true"`
	ProductionMode    bool          `env:"TOKENAUTH_PRODUCTION_MODE" envDefault:"false"`
	RestrictCatalog   bool          `env:"TOKENAUTH_RESTRICT_AUTHORITIES" envDefault:"false"`
	AllowDeprecated   bool          `env:"TOKENAUTH_ALLOW_DEPRECATED_PERMISSIONS" envDefault:"true"`
	AuditEnabled      bool          `env:"TOKENAUTH_AUDIT_ENABLED" envDefault:"false"`
	AuditBufferSize   int           `env:"TOKENAUTH_AUDIT_BUFFER_SIZE" envDefault:"1024"`
	AuditDropIfFull   bool          `env:"TOKENAUTH_AUDIT_DROP_IF_FULL" envDefault:"true"`
	MetricsEnabled    bool          `env:"TOKENAUTH_METRICS_ENABLED" envDefault:"true"`
	LatencyHistograms bool          `env:"TOKENAUTH_LATENCY_HISTOGRAMS" envDefault:"false"`
}

// LoadConfig layers environment variables over DefaultConfig. When files
// are given they are loaded with godotenv first and a missing file is an
// error; otherwise an optional ./.env is read. APP_SECRET is required and is
// removed from the process environment after parsing.
func LoadConfig(files ...string) (Config, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Config{}, errors.Join(ErrConfigLoad, err)
		}
	} else {
		_ = godotenv.Load()
	}

	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, errors.Join(ErrConfigLoad, err)
	}

	cfg := DefaultConfig()
	cfg.Token.Secret = []byte(ec.Secret)
	cfg.Token.ValidityWindow = ec.ValidityWindow
	cfg.Token.Leeway = ec.Leeway
	cfg.Transport.ParamName = ec.ParamName
	cfg.Transport.CookieDomain = ec.CookieDomain
	cfg.Transport.CookieSecure = ec.CookieSecure
	cfg.Security.ProductionMode = ec.ProductionMode
	cfg.Security.RestrictAuthorities = ec.RestrictCatalog
	cfg.Security.AllowDeprecatedPermissions = ec.AllowDeprecated
	cfg.Audit.Enabled = ec.AuditEnabled
	cfg.Audit.BufferSize = ec.AuditBufferSize
	cfg.Audit.DropIfFull = ec.AuditDropIfFull
	cfg.Metrics.Enabled = ec.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = ec.LatencyHistograms

	return cfg, nil
}

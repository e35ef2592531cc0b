package transport

import "net/http"

const (
	DefaultHeaderName = "Authorization"
	DefaultCookieName = "Authorization"
	DefaultParamName  = "q-token"
	DefaultPrefix     = "Bearer"
)

// Config names the request fields a token travels in and the cookie attributes
// used when one is written. The cookie is always HttpOnly.
type Config struct {
	HeaderName string
	CookieName string
	ParamName  string
	Prefix     string

	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
}

// DefaultConfig returns the field names and cookie attributes used on the wire.
func DefaultConfig() Config {
	return Config{
		HeaderName:     DefaultHeaderName,
		CookieName:     DefaultCookieName,
		ParamName:      DefaultParamName,
		Prefix:         DefaultPrefix,
		CookiePath:     "/",
		CookieSecure:   true,
		CookieSameSite: http.SameSiteLaxMode,
	}
}

// Option adjusts a Config before the Adapter is built.
type Option func(*Config)

func WithCookiePath(path string) Option {
	return func(c *Config) {
		c.CookiePath = path
	}
}

func WithCookieDomain(domain string) Option {
	return func(c *Config) {
		c.CookieDomain = domain
	}
}

func WithCookieSecure(secure bool) Option {
	return func(c *Config) {
		c.CookieSecure = secure
	}
}

func WithCookieSameSite(sameSite http.SameSite) Option {
	return func(c *Config) {
		c.CookieSameSite = sameSite
	}
}

func WithParamName(name string) Option {
	return func(c *Config) {
		c.ParamName = name
	}
}

// applyOptions copies base and applies opts; base is not modified.
func applyOptions(base Config, opts []Option) Config {
	result := base
	for _, opt := range opts {
		opt(&result)
	}
	return result
}

// fillDefaults replaces empty names with the defaults.
func fillDefaults(c Config) Config {
	d := DefaultConfig()
	if c.HeaderName == "" {
		c.HeaderName = d.HeaderName
	}
	if c.CookieName == "" {
		c.CookieName = d.CookieName
	}
	if c.ParamName == "" {
		c.ParamName = d.ParamName
	}
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	if c.CookiePath == "" {
		c.CookiePath = d.CookiePath
	}
	return c
}

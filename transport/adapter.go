package transport

import (
	"net/http"
	"strings"
)

// Source identifies the request field a credential was read from.
type Source uint8

const (
	SourceNone Source = iota
	SourceHeader
	SourceCookie
	SourceParam
)

func (s Source) String() string {
	switch s {
	case SourceHeader:
		return "header"
	case SourceCookie:
		return "cookie"
	case SourceParam:
		return "param"
	default:
		return "none"
	}
}

// Credential is a candidate token string together with where it came from.
// Header values are returned verbatim, cookie values are re-wrapped with the
// prefix, and parameter values are returned raw.
type Credential struct {
	Source Source
	Value  string
}

// Adapter moves tokens between HTTP messages and plain strings.
// It is immutable after New and safe for concurrent use.
type Adapter struct {
	cfg Config
}

// New builds an Adapter from cfg with opts applied. Empty field names fall
// back to the defaults.
func New(cfg Config, opts ...Option) *Adapter {
	return &Adapter{cfg: fillDefaults(applyOptions(cfg, opts))}
}

// Config returns a copy of the effective configuration.
func (a *Adapter) Config() Config {
	return a.cfg
}

// Extract returns the candidate token string using header, then cookie, then
// parameter precedence.
func (a *Adapter) Extract(r *http.Request) (string, bool) {
	c, ok := a.ExtractCredential(r)
	return c.Value, ok
}

// ExtractCredential is Extract that also reports the source field.
func (a *Adapter) ExtractCredential(r *http.Request) (Credential, bool) {
	if r == nil {
		return Credential{}, false
	}
	if v := r.Header.Get(a.cfg.HeaderName); v != "" {
		return Credential{Source: SourceHeader, Value: v}, true
	}
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return Credential{Source: SourceCookie, Value: a.cfg.Prefix + " " + c.Value}, true
	}
	if v := r.FormValue(a.cfg.ParamName); v != "" {
		return Credential{Source: SourceParam, Value: v}, true
	}
	return Credential{}, false
}

// IsPrefixedToken reports whether candidate starts with the scheme prefix.
func (a *Adapter) IsPrefixedToken(candidate string) bool {
	return strings.HasPrefix(candidate, a.cfg.Prefix)
}

// StripPrefix removes a leading scheme prefix and surrounding whitespace.
// Occurrences of the prefix text elsewhere are left alone.
func (a *Adapter) StripPrefix(candidate string) string {
	return strings.TrimSpace(strings.TrimPrefix(candidate, a.cfg.Prefix))
}

// Attach writes token to the response header and the auth cookie.
func (a *Adapter) Attach(w http.ResponseWriter, token string) {
	w.Header().Set(a.cfg.HeaderName, a.cfg.Prefix+" "+token)
	http.SetCookie(w, a.cookie(token))
}

// Clear instructs the client to discard the auth cookie.
func (a *Adapter) Clear(w http.ResponseWriter) {
	c := a.cookie("")
	c.MaxAge = -1
	http.SetCookie(w, c)
}

func (a *Adapter) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    value,
		Path:     a.cfg.CookiePath,
		Domain:   a.cfg.CookieDomain,
		Secure:   a.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: a.cfg.CookieSameSite,
	}
}

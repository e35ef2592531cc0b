package tokenauth

import (
	"net/http"
	"time"
)

// SecurityReport summarizes the effective security settings of an Engine.
// It never includes the secret.
type SecurityReport struct {
	ProductionMode        bool
	SigningAlgorithm      string
	SecretBytes           int
	ValidityWindow        time.Duration
	Leeway                time.Duration
	CookieSecure          bool
	CookieHTTPOnly        bool
	CookieSameSite        http.SameSite
	AuthoritiesRestrict   bool
	RegisteredAuthorities int
	AuditEnabled          bool
	AuditDropIfFull       bool
	MetricsEnabled        bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	registered := 0
	if e.registry != nil {
		registered = e.registry.Count()
	}

	return SecurityReport{
		ProductionMode:        e.config.Security.ProductionMode,
		SigningAlgorithm:      "HS512",
		SecretBytes:           len(e.config.Token.Secret),
		ValidityWindow:        e.config.Token.ValidityWindow,
		Leeway:                e.config.Token.Leeway,
		CookieSecure:          e.config.Transport.CookieSecure,
		CookieHTTPOnly:        true,
		CookieSameSite:        e.config.Transport.CookieSameSite,
		AuthoritiesRestrict:   e.registry != nil,
		RegisteredAuthorities: registered,
		AuditEnabled:          e.audit != nil,
		AuditDropIfFull:       e.config.Audit.DropIfFull,
		MetricsEnabled:        e.metrics.Enabled(),
	}
}

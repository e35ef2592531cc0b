package tokenauth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/qplayer/tokenauth/internal/audit"
	"github.com/qplayer/tokenauth/jwt"
	"github.com/qplayer/tokenauth/permission"
	"github.com/qplayer/tokenauth/transport"
)

// Builder collects engine dependencies. A Builder produces one Engine.
type Builder struct {
	config Config

	logger    *slog.Logger
	auditSink AuditSink
	registry  *permission.Registry
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The secret is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the signing secret. The slice is copied.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Token.Secret = cloneBytes(secret)
	return b
}

// WithValidityWindow sets how long issued tokens stay valid.
func (b *Builder) WithValidityWindow(d time.Duration) *Builder {
	b.config.Token.ValidityWindow = d
	return b
}

// WithLogger sets the structured logger. Tokens are never logged.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets where audit events go when Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithAuthorityRegistry restricts issuance to the names in r. The registry
// is frozen by Build.
func (b *Builder) WithAuthorityRegistry(r *permission.Registry) *Builder {
	b.registry = r
	return b
}

// WithClock overrides the time source for issuance, verification and audit.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	codec, err := jwt.NewCodec(jwt.Config{
		Secret:         cfg.Token.Secret,
		ValidityWindow: cfg.Token.ValidityWindow,
		Leeway:         cfg.Token.Leeway,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}

	registry := b.registry
	if registry == nil && cfg.Security.RestrictAuthorities {
		registry = permission.NewCatalogRegistry(cfg.Security.AllowDeprecatedPermissions)
	}
	if registry != nil {
		registry.Freeze()
		if registry.Count() == 0 {
			return nil, errors.New("authority registry is empty")
		}
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config:   cfg,
		codec:    codec,
		adapter:  transport.New(cfg.Transport.adapterConfig()),
		registry: registry,
		metrics:  NewMetrics(cfg.Metrics),
		logger:   logger.With(slog.String("component", "tokenauth")),
		now:      now,
	}
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true

	return engine, nil
}

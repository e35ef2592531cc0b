package tokenauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/qplayer/tokenauth/internal/audit"
	"github.com/qplayer/tokenauth/jwt"
	"github.com/qplayer/tokenauth/permission"
	"github.com/qplayer/tokenauth/principal"
	"github.com/qplayer/tokenauth/transport"
)

// Engine issues tokens onto responses and authenticates inbound requests.
//
// An Engine is immutable after Builder.Build and safe for concurrent use.
// Call Close on shutdown to flush pending audit events.
type Engine struct {
	config   Config
	codec    *jwt.Codec
	adapter  *transport.Adapter
	registry *permission.Registry
	audit    *audit.Dispatcher
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// ValidityWindow returns the lifetime given to issued tokens.
func (e *Engine) ValidityWindow() time.Duration {
	if e == nil {
		return 0
	}
	return e.codec.ValidityWindow()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

/*
====================================
ISSUANCE
====================================
*/

// IssueToken signs p without touching any response.
//
// When an authority registry is configured every authority must be
// registered; otherwise the error wraps ErrUnknownAuthority.
func (e *Engine) IssueToken(ctx context.Context, p Principal) (IssuedToken, error) {
	if e == nil || e.codec == nil {
		return IssuedToken{}, ErrEngineNotReady
	}

	authorities := principal.NormalizeAuthorities(p.Authorities)
	if e.registry != nil {
		if err := e.registry.Validate(authorities); err != nil {
			e.metricInc(MetricIssueUnknownAuthority)
			e.issueFailed(ctx, p.Subject, err)
			return IssuedToken{}, err
		}
	}

	token, claims, err := e.codec.EncodeClaims(p)
	if err != nil {
		e.issueFailed(ctx, p.Subject, err)
		return IssuedToken{}, err
	}

	issued := IssuedToken{
		Token:     token,
		TokenID:   claims.ID,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	e.metricInc(MetricIssueSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditTokenIssued,
		Subject:   issued.Subject,
		TokenID:   issued.TokenID,
		IP:        clientIPFromContext(ctx),
		Success:   true,
		Metadata: map[string]string{
			"authorities":  strconv.Itoa(len(authorities)),
			"resource_ids": strconv.Itoa(len(p.AccessibleResourceIDs)),
		},
	})
	e.logger.LogAttrs(ctx, slog.LevelDebug, "token issued",
		slog.String("subject", issued.Subject),
		slog.String("jti", issued.TokenID),
		slog.Time("expires_at", issued.ExpiresAt),
	)

	return issued, nil
}

// Issue signs p and writes the token to w as the Authorization header and
// the Authorization cookie.
func (e *Engine) Issue(ctx context.Context, w http.ResponseWriter, p Principal) (IssuedToken, error) {
	issued, err := e.IssueToken(ctx, p)
	if err != nil {
		return IssuedToken{}, err
	}
	e.adapter.Attach(w, issued.Token)
	return issued, nil
}

// IssueForPermissions is Issue for a subject granted catalog permissions.
func (e *Engine) IssueForPermissions(ctx context.Context, w http.ResponseWriter, subject string, perms []permission.Permission, resourceIDs []int64) (IssuedToken, error) {
	return e.Issue(ctx, w, principal.New(subject, permission.Names(perms), resourceIDs))
}

func (e *Engine) issueFailed(ctx context.Context, subject string, err error) {
	if !errors.Is(err, ErrUnknownAuthority) {
		e.metricInc(MetricIssueFailure)
	}
	reason := FailureReason(err)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditTokenIssueFailed,
		Subject:   subject,
		IP:        clientIPFromContext(ctx),
		Reason:    reason,
	})
	e.logger.LogAttrs(ctx, slog.LevelWarn, "token issue failed",
		slog.String("subject", subject),
		slog.String("reason", reason),
	)
}

/*
====================================
AUTHENTICATION
====================================
*/

// Authenticate extracts the request's token and returns the principal it
// carries.
//
// The first present field wins: header, then cookie, then the q-token
// parameter. Header and cookie values must carry the Bearer prefix; the
// parameter carries the bare token. Failures wrap ErrNoCredentials,
// ErrUnsupportedScheme or one of the token sentinels, and the returned
// Principal is always the zero value on error.
func (e *Engine) Authenticate(r *http.Request) (Principal, error) {
	if e == nil || e.codec == nil {
		return Principal{}, ErrEngineNotReady
	}

	claims, source, err := e.verifyRequest(r)
	if err == nil {
		var p Principal
		p, err = claims.Principal()
		if err == nil {
			e.metricInc(MetricAuthenticateSuccess)
			return p, nil
		}
	}

	e.rejected(r, source, err)
	return Principal{}, err
}

// ParseClaims is Authenticate returning the raw verified claims instead of
// a Principal. Claims that Authenticate would reject are rejected here too.
func (e *Engine) ParseClaims(r *http.Request) (*Claims, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}
	claims, source, err := e.verifyRequest(r)
	if err == nil {
		_, err = claims.Principal()
	}
	if err != nil {
		e.rejected(r, source, err)
		return nil, err
	}
	e.metricInc(MetricAuthenticateSuccess)
	return claims, nil
}

// Decode verifies a bare token string, without any scheme prefix. ctx feeds
// the audit event and log record of a rejection.
func (e *Engine) Decode(ctx context.Context, token string) (Principal, error) {
	if e == nil || e.codec == nil {
		return Principal{}, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	p, err := e.codec.Decode(token)
	e.observeDecode(start)
	if err != nil {
		e.reject(ctx, SourceNone, clientIPFromContext(ctx), err)
		return Principal{}, err
	}
	e.metricInc(MetricAuthenticateSuccess)
	return p, nil
}

func (e *Engine) verifyRequest(r *http.Request) (*Claims, CredentialSource, error) {
	token, source, err := e.candidateToken(r)
	if err != nil {
		return nil, source, err
	}

	start := time.Now()
	claims, err := e.codec.DecodeClaims(token)
	e.observeDecode(start)
	if err != nil {
		return nil, source, err
	}
	return claims, source, nil
}

// candidateToken applies the extraction rules and returns the bare token.
func (e *Engine) candidateToken(r *http.Request) (string, CredentialSource, error) {
	cred, ok := e.adapter.ExtractCredential(r)
	if !ok {
		return "", SourceNone, ErrNoCredentials
	}

	switch cred.Source {
	case SourceParam:
		return e.adapter.StripPrefix(cred.Value), cred.Source, nil
	default:
		if !e.adapter.IsPrefixedToken(cred.Value) {
			return "", cred.Source, fmt.Errorf("%w: %s value", ErrUnsupportedScheme, cred.Source)
		}
		return e.adapter.StripPrefix(cred.Value), cred.Source, nil
	}
}

func (e *Engine) observeDecode(start time.Time) {
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricDecodeLatency, time.Since(start))
	}
}

func (e *Engine) rejected(r *http.Request, source CredentialSource, err error) {
	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}
	ip := clientIPFromContext(ctx)
	if ip == "" && r != nil {
		ip = remoteIP(r)
	}
	e.reject(ctx, source, ip, err)
}

// reject counts a failed verification and, unless the caller simply sent no
// credentials, audits and logs it.
func (e *Engine) reject(ctx context.Context, source CredentialSource, ip string, err error) {
	reason := FailureReason(err)
	e.metricInc(FailureMetric(reason))
	if errors.Is(err, ErrNoCredentials) {
		return
	}

	ev := AuditEvent{
		EventType: AuditTokenRejected,
		IP:        ip,
		Reason:    reason,
	}
	if source != SourceNone {
		ev.Source = source.String()
	}
	e.emitAudit(ctx, ev)
	e.logger.LogAttrs(ctx, slog.LevelDebug, "token rejected",
		slog.String("source", source.String()),
		slog.String("reason", reason),
	)
}

/*
====================================
LOGOUT
====================================
*/

// Logout clears the auth cookie on w. Tokens already handed out stay valid
// until they expire.
func (e *Engine) Logout(ctx context.Context, w http.ResponseWriter) error {
	if e == nil || e.adapter == nil {
		return ErrEngineNotReady
	}
	e.adapter.Clear(w)
	e.metricInc(MetricLogout)

	ev := AuditEvent{
		EventType: AuditTokenCleared,
		IP:        clientIPFromContext(ctx),
		Success:   true,
	}
	if p, ok := PrincipalFromContext(ctx); ok {
		ev.Subject = p.Subject
	}
	e.emitAudit(ctx, ev)
	return nil
}

func (e *Engine) emitAudit(ctx context.Context, ev AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.now().UTC()
	}
	e.audit.Emit(ctx, ev)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package tokenauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"

	"github.com/qplayer/tokenauth/permission"
)

var engineTestSecret = []byte("engine-test-secret-0123456789abcdef0123456789abcdef0123456789abcd")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func buildTestEngine(t *testing.T, configure func(b *Builder)) *Engine {
	t.Helper()
	b := New().WithSecret(engineTestSecret)
	if configure != nil {
		configure(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// requestWithResponse copies the header and cookies written by Issue onto a
// fresh inbound request.
func requestWithResponse(rec *httptest.ResponseRecorder, header, cookie bool) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header {
		req.Header.Set("Authorization", rec.Header().Get("Authorization"))
	}
	if cookie {
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
	}
	return req
}

func TestEndToEndIssueAndAuthenticate(t *testing.T) {
	engine := buildTestEngine(t, nil)
	want := NewPrincipal("alice", []string{"role/teacher"}, []int64{101, 202})

	rec := httptest.NewRecorder()
	issued, err := engine.Issue(context.Background(), rec, want)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if rec.Header().Get("Authorization") != "Bearer "+issued.Token {
		t.Fatalf("unexpected Authorization header %q", rec.Header().Get("Authorization"))
	}
	if issued.Subject != "alice" || issued.TokenID == "" {
		t.Fatalf("unexpected issued token %+v", issued)
	}
	if got := issued.ExpiresAt.Sub(issued.IssuedAt); got != 10*24*time.Hour {
		t.Fatalf("expected 10 day window, got %v", got)
	}

	for _, mode := range []struct {
		name           string
		header, cookie bool
	}{
		{"header", true, false},
		{"cookie", false, true},
		{"both", true, true},
	} {
		p, err := engine.Authenticate(requestWithResponse(rec, mode.header, mode.cookie))
		if err != nil {
			t.Fatalf("%s: Authenticate failed: %v", mode.name, err)
		}
		if !p.Equal(want) {
			t.Fatalf("%s: want %+v, got %+v", mode.name, want, p)
		}
	}

	param := httptest.NewRequest(http.MethodGet, "/?q-token="+issued.Token, nil)
	p, err := engine.Authenticate(param)
	if err != nil {
		t.Fatalf("param: Authenticate failed: %v", err)
	}
	if !p.Equal(want) {
		t.Fatalf("param: want %+v, got %+v", want, p)
	}
}

func TestAuthenticateHeaderTakesPrecedence(t *testing.T) {
	engine := buildTestEngine(t, nil)
	alice, _ := engine.IssueToken(context.Background(), NewPrincipal("alice", nil, nil))
	bob, _ := engine.IssueToken(context.Background(), NewPrincipal("bob", nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/?q-token="+alice.Token, nil)
	req.Header.Set("Authorization", "Bearer "+bob.Token)
	req.AddCookie(&http.Cookie{Name: "Authorization", Value: alice.Token})

	p, err := engine.Authenticate(req)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if p.Subject != "bob" {
		t.Fatalf("expected header principal bob, got %q", p.Subject)
	}
}

func TestAuthenticateDoesNotFallBackPastInvalidHeader(t *testing.T) {
	engine := buildTestEngine(t, nil)
	alice, _ := engine.IssueToken(context.Background(), NewPrincipal("alice", nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	req.AddCookie(&http.Cookie{Name: "Authorization", Value: alice.Token})

	p, err := engine.Authenticate(req)
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
	if !p.IsZero() {
		t.Fatalf("expected zero principal, got %+v", p)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	req.AddCookie(&http.Cookie{Name: "Authorization", Value: alice.Token})
	if _, err := engine.Authenticate(req); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}

func TestAuthenticateFailureKinds(t *testing.T) {
	clock := newTestClock()
	engine := buildTestEngine(t, func(b *Builder) {
		b.WithClock(clock.Now).WithValidityWindow(time.Hour)
	})
	token, _ := engine.IssueToken(context.Background(), NewPrincipal("alice", nil, nil))

	if _, err := engine.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}

	tampered := []byte(token.Token)
	last := len(tampered) - 2
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+string(tampered))
	if _, err := engine.Authenticate(req); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}

	clock.Advance(2 * time.Hour)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	if _, err := engine.Authenticate(req); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestIssueRejectsEmptySubject(t *testing.T) {
	engine := buildTestEngine(t, nil)
	rec := httptest.NewRecorder()
	if _, err := engine.Issue(context.Background(), rec, NewPrincipal("", []string{"x"}, nil)); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}
	if rec.Header().Get("Authorization") != "" || len(rec.Result().Cookies()) != 0 {
		t.Fatal("failed issuance must not write to the response")
	}
}

func TestIssueWithAuthorityRegistry(t *testing.T) {
	registry := permission.NewRegistry()
	_ = registry.Register("role/teacher")

	engine := buildTestEngine(t, func(b *Builder) {
		b.WithAuthorityRegistry(registry)
	})

	if _, err := engine.IssueToken(context.Background(), NewPrincipal("alice", []string{"role/teacher"}, nil)); err != nil {
		t.Fatalf("expected registered authority to issue: %v", err)
	}
	_, err := engine.IssueToken(context.Background(), NewPrincipal("alice", []string{"role/teacher", "role/admin"}, nil))
	if !errors.Is(err, ErrUnknownAuthority) {
		t.Fatalf("expected ErrUnknownAuthority, got %v", err)
	}
	if !registry.Frozen() {
		t.Fatal("expected Build to freeze the registry")
	}
	if got := engine.MetricsSnapshot().Counters[MetricIssueUnknownAuthority]; got != 1 {
		t.Fatalf("expected 1 unknown authority rejection, got %d", got)
	}
}

func TestIssueForPermissionsUsesCatalogIdentifiers(t *testing.T) {
	engine := buildTestEngine(t, func(b *Builder) {
		cfg := DefaultConfig()
		cfg.Token.Secret = engineTestSecret
		cfg.Security.RestrictAuthorities = true
		b.WithConfig(cfg)
	})

	rec := httptest.NewRecorder()
	_, err := engine.IssueForPermissions(context.Background(), rec, "carol",
		[]permission.Permission{permission.PlayerStudent, permission.MonitorStudent}, []int64{7})
	if err != nil {
		t.Fatalf("IssueForPermissions failed: %v", err)
	}

	claims, err := engine.ParseClaims(requestWithResponse(rec, true, false))
	if err != nil {
		t.Fatalf("ParseClaims failed: %v", err)
	}
	if claims.Authorities != "QPLAYER_STUDENT,QMONITOR_STUDENT" {
		t.Fatalf("unexpected permissions claim %q", claims.Authorities)
	}
	if claims.ResourceIDs == nil || *claims.ResourceIDs != "7" {
		t.Fatalf("unexpected courses claim %v", claims.ResourceIDs)
	}

	if _, err := engine.IssueToken(context.Background(), NewPrincipal("carol", []string{"made-up"}, nil)); !errors.Is(err, ErrUnknownAuthority) {
		t.Fatalf("expected catalog restriction, got %v", err)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	engine := buildTestEngine(t, nil)
	rec := httptest.NewRecorder()
	if err := engine.Logout(context.Background(), rec); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "Authorization" || c.Value != "" || c.MaxAge >= 0 || c.Path != "/" || !c.HttpOnly || !c.Secure {
		t.Fatalf("unexpected clearing cookie %+v", c)
	}
	if engine.MetricsSnapshot().Counters[MetricLogout] != 1 {
		t.Fatal("expected logout metric")
	}
}

func TestDecodeBareToken(t *testing.T) {
	engine := buildTestEngine(t, nil)
	issued, _ := engine.IssueToken(context.Background(), NewPrincipal("dave", []string{"a"}, nil))

	p, err := engine.Decode(context.Background(), issued.Token)
	if err != nil || p.Subject != "dave" {
		t.Fatalf("unexpected Decode result %+v %v", p, err)
	}
	if _, err := engine.Decode(context.Background(), "Bearer "+issued.Token); err == nil {
		t.Fatal("expected Decode to reject a prefixed value")
	}
}

// signedWithEngineSecret signs claims with the engine's key, bypassing the
// encoder's own checks.
func signedWithEngineSecret(t *testing.T, claims gjwt.MapClaims) string {
	t.Helper()
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS512, claims).SignedString(engineTestSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestParseClaimsRejectsMalformedResourceIDs(t *testing.T) {
	engine := buildTestEngine(t, nil)
	token := signedWithEngineSecret(t, gjwt.MapClaims{
		"sub":         "alice",
		"permissions": "QPLAYER_STUDENT",
		"courses":     "1,abc",
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	if _, err := engine.Authenticate(req); !errors.Is(err, ErrMalformedClaim) {
		t.Fatalf("Authenticate: expected ErrMalformedClaim, got %v", err)
	}
	claims, err := engine.ParseClaims(req)
	if !errors.Is(err, ErrMalformedClaim) || claims != nil {
		t.Fatalf("ParseClaims: expected ErrMalformedClaim and no claims, got %v %v", claims, err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricAuthenticateSuccess] != 0 {
		t.Fatalf("expected no successes, got %d", snap.Counters[MetricAuthenticateSuccess])
	}
	if snap.Counters[MetricAuthenticateMalformedClaim] != 2 {
		t.Fatalf("expected 2 malformed claim failures, got %d", snap.Counters[MetricAuthenticateMalformedClaim])
	}
}

func TestDecodeRejectionIsAudited(t *testing.T) {
	sink := NewChannelSink(4)
	engine := buildTestEngine(t, func(b *Builder) {
		b.WithConfig(auditConfig(4, false)).WithAuditSink(sink)
	})

	ctx := WithClientIP(context.Background(), "192.0.2.10")
	if _, err := engine.Decode(ctx, "not-a-token"); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}

	ev := nextEvent(t, sink)
	if ev.EventType != AuditTokenRejected || ev.Reason != ReasonMalformedToken {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.IP != "192.0.2.10" || ev.Source != "" {
		t.Fatalf("unexpected rejection fields %+v", ev)
	}
	if got := engine.MetricsSnapshot().Counters[MetricAuthenticateMalformed]; got != 1 {
		t.Fatalf("expected 1 malformed token failure, got %d", got)
	}
}

func TestAuthenticateMetrics(t *testing.T) {
	engine := buildTestEngine(t, func(b *Builder) {
		b.WithLatencyHistograms(true)
	})
	issued, _ := engine.IssueToken(context.Background(), NewPrincipal("alice", nil, nil))

	ok := httptest.NewRequest(http.MethodGet, "/", nil)
	ok.Header.Set("Authorization", "Bearer "+issued.Token)
	_, _ = engine.Authenticate(ok)
	_, _ = engine.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))
	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.Header.Set("Authorization", "Token abc")
	_, _ = engine.Authenticate(bad)

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricIssueSuccess] != 1 {
		t.Fatalf("expected 1 issue, got %d", snap.Counters[MetricIssueSuccess])
	}
	if snap.Counters[MetricAuthenticateSuccess] != 1 {
		t.Fatalf("expected 1 success, got %d", snap.Counters[MetricAuthenticateSuccess])
	}
	if snap.Counters[MetricAuthenticateNoCredentials] != 1 {
		t.Fatalf("expected 1 no-credentials, got %d", snap.Counters[MetricAuthenticateNoCredentials])
	}
	if snap.Counters[MetricAuthenticateUnsupportedScheme] != 1 {
		t.Fatalf("expected 1 unsupported scheme, got %d", snap.Counters[MetricAuthenticateUnsupportedScheme])
	}

	var samples uint64
	for _, v := range snap.Histograms[MetricDecodeLatency] {
		samples += v
	}
	if samples != 1 {
		t.Fatalf("expected 1 decode latency sample, got %d", samples)
	}
}

func TestNilEngine(t *testing.T) {
	var e *Engine
	if _, err := e.IssueToken(context.Background(), NewPrincipal("a", nil, nil)); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if err := e.Logout(context.Background(), httptest.NewRecorder()); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	e.Close()
	if e.AuditDropped() != 0 || len(e.MetricsSnapshot().Counters) != 0 {
		t.Fatal("expected empty observability on nil engine")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithSecret(engineTestSecret)
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestEngineConcurrentAuthenticate(t *testing.T) {
	engine := buildTestEngine(t, nil)
	issued, _ := engine.IssueToken(context.Background(), NewPrincipal("alice", []string{"a", "b"}, []int64{1}))

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+issued.Token)
			if _, err := engine.Authenticate(req); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Authenticate failed: %v", err)
	}
	if got := engine.MetricsSnapshot().Counters[MetricAuthenticateSuccess]; got != 64 {
		t.Fatalf("expected 64 successes, got %d", got)
	}
}

func TestFailureReason(t *testing.T) {
	cases := map[error]string{
		nil:                  ReasonNone,
		ErrNoCredentials:     ReasonNoCredentials,
		ErrUnsupportedScheme: ReasonUnsupportedScheme,
		ErrMalformedToken:    ReasonMalformedToken,
		ErrSignatureInvalid:  ReasonSignatureInvalid,
		ErrTokenExpired:      ReasonExpired,
		ErrMissingSubject:    ReasonMissingSubject,
		ErrMalformedClaim:    ReasonMalformedClaim,
		ErrUnknownAuthority:  ReasonUnknownAuthority,
		ErrConfiguration:     ReasonConfiguration,
		ErrEngineNotReady:    ReasonEngineNotReady,
		errors.New("boom"):   ReasonInternal,
	}
	for err, want := range cases {
		if got := FailureReason(err); got != want {
			t.Fatalf("FailureReason(%v) = %q, want %q", err, got, want)
		}
	}
}

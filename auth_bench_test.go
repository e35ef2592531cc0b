package tokenauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newBenchmarkEngine(b *testing.B) *Engine {
	b.Helper()
	engine, err := New().WithSecret(engineTestSecret).Build()
	if err != nil {
		b.Fatalf("Build failed: %v", err)
	}
	b.Cleanup(engine.Close)
	return engine
}

func benchmarkPrincipal() Principal {
	ids := make([]int64, 50)
	for i := range ids {
		ids[i] = int64(1000 + i)
	}
	return NewPrincipal("alice", []string{"QPLAYER_STUDENT", "QMONITOR_STUDENT", "QPLAYER_TEACHER"}, ids)
}

func BenchmarkIssueToken(b *testing.B) {
	engine := newBenchmarkEngine(b)
	p := benchmarkPrincipal()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.IssueToken(context.Background(), p); err != nil {
			b.Fatalf("issue failed: %v", err)
		}
	}
}

func BenchmarkAuthenticateHeader(b *testing.B) {
	engine := newBenchmarkEngine(b)
	issued, err := engine.IssueToken(context.Background(), benchmarkPrincipal())
	if err != nil {
		b.Fatalf("issue failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Authenticate(req); err != nil {
			b.Fatalf("authenticate failed: %v", err)
		}
	}
}

func BenchmarkAuthenticateCookieParallel(b *testing.B) {
	engine := newBenchmarkEngine(b)
	issued, err := engine.IssueToken(context.Background(), benchmarkPrincipal())
	if err != nil {
		b.Fatalf("issue failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "Authorization", Value: issued.Token})
		for pb.Next() {
			if _, err := engine.Authenticate(req); err != nil {
				b.Errorf("authenticate failed: %v", err)
				return
			}
		}
	})
}

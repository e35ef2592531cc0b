package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	mrand "math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"

	"github.com/qplayer/tokenauth"
	"github.com/qplayer/tokenauth/permission"
)

func main() {
	flagSet := pflag.NewFlagSet("tokenauth-loadtest", pflag.ContinueOnError)
	var (
		subjects    = flagSet.Int("subjects", 10000, "number of distinct subjects to issue tokens for")
		concurrency = flagSet.IntP("concurrency", "c", 256, "number of concurrent workers")
		ops         = flagSet.IntP("ops", "n", 200000, "operations per phase (issue + authenticate)")
		courses     = flagSet.Int("courses", 20, "resource ids per token")
		cookie      = flagSet.Bool("cookie", false, "send tokens as cookies instead of the Authorization header")
	)
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *subjects <= 0 || *concurrency <= 0 || *ops <= 0 || *courses < 0 {
		fmt.Fprintln(os.Stderr, "subjects, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	secret := make([]byte, 64)
	if _, err := rand.Read(secret); err != nil {
		fmt.Fprintf(os.Stderr, "secret: %v\n", err)
		os.Exit(1)
	}

	engine, err := tokenauth.New().
		WithSecret(secret).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx := context.Background()
	perms := permission.Names(permission.All(false))
	principals := make([]tokenauth.Principal, *subjects)
	for i := range principals {
		ids := make([]int64, *courses)
		for j := range ids {
			ids[j] = int64(i*(*courses) + j)
		}
		principals[i] = tokenauth.NewPrincipal("user-"+strconv.Itoa(i), perms[:1+i%len(perms)], ids)
	}

	issueStats, tokens := runIssuePhase(ctx, engine, principals, *ops, *concurrency)
	authStats := runAuthenticatePhase(engine, tokens, *ops, *concurrency, *cookie)

	fmt.Println("---- results ----")
	printStats("issue", issueStats)
	printStats("authenticate", authStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("decode latency buckets (50us,100us,250us,500us,1ms,5ms,25ms,+Inf): %v\n", snap.Histograms[tokenauth.MetricDecodeLatency])
}

func runIssuePhase(ctx context.Context, engine *tokenauth.Engine, principals []tokenauth.Principal, ops, concurrency int) (phaseStats, []string) {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		tokens    = make([]string, len(principals))
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := i % len(principals)
				t0 := time.Now()
				issued, err := engine.IssueToken(ctx, principals[idx])
				d := time.Since(t0)

				mu.Lock()
				if err != nil {
					failures++
				} else {
					tokens[idx] = issued.Token
				}
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	if ops < len(tokens) {
		tokens = tokens[:ops]
	}
	return computeStats(total, latencies, failures), tokens
}

func runAuthenticatePhase(engine *tokenauth.Engine, tokens []string, ops, concurrency int, asCookie bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mrand.New(mrand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				token := tokens[r.Intn(len(tokens))]
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				if asCookie {
					req.AddCookie(&http.Cookie{Name: "Authorization", Value: token})
				} else {
					req.Header.Set("Authorization", "Bearer "+token)
				}

				t0 := time.Now()
				_, err := engine.Authenticate(req)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

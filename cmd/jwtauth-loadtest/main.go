// Command jwtauth-loadtest measures verify throughput and checks that concurrent
// presentations of one refresh token produce exactly one winner.
package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/jwtauth"
	"github.com/MrEthical07/jwtauth/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		tokens      = flag.Int("tokens", 1000, "number of refresh tokens to race")
		racers      = flag.Int("racers", 8, "concurrent presentations per refresh token")
		concurrency = flag.Int("concurrency", 64, "number of concurrent verify workers")
		ops         = flag.Int("ops", 50000, "verify operations")
		backend     = flag.String("backend", "redis", "used-token store: memory or redis")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *tokens <= 0 || *racers <= 1 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "tokens, concurrency and ops must be > 0; racers must be > 1")
		os.Exit(2)
	}

	ctx := context.Background()

	store, cleanup, err := openStore(ctx, *backend, *redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	priv, pub, err := generateKeys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate keys: %v\n", err)
		os.Exit(1)
	}

	svc, err := jwtauth.New().
		WithKeyPair(priv, pub).
		WithStorage(store).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	access := make([]string, 64)
	for i := range access {
		access[i], err = svc.CreateAccessToken(ctx, map[string]any{"sub": fmt.Sprintf("u-%d", i)})
		if err != nil {
			fmt.Fprintf(os.Stderr, "create access token: %v\n", err)
			os.Exit(1)
		}
	}

	verifyStats := runVerifyPhase(ctx, svc, access, *ops, *concurrency)
	race, err := runReplayRace(ctx, svc, *tokens, *racers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay race: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("---- results ----")
	printStats("verify", verifyStats)
	printStats("refresh", race.stats)
	fmt.Printf("replay: tokens=%d racers=%d winners=%d rejected=%d violations=%d\n",
		*tokens, *racers, race.winners, race.rejected, race.violations)

	snap := svc.MetricsSnapshot()
	fmt.Printf("metrics: refresh_success=%d replay_detected=%d storage_unavailable=%d\n",
		snap.Counters[jwtauth.MetricRefreshSuccess],
		snap.Counters[jwtauth.MetricReplayDetected],
		snap.Counters[jwtauth.MetricStorageUnavailable])

	if race.violations > 0 {
		os.Exit(1)
	}
}

func openStore(ctx context.Context, backend, addr string) (storage.Manager, func(), error) {
	switch backend {
	case "memory":
		fmt.Println("using in-memory store")
		return storage.NewMemoryStore(), func() {}, nil
	case "redis":
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}

	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var mr *miniredis.Miniredis
	if addr == "" {
		var err error
		mr, err = miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		addr = mr.Addr()
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		fmt.Printf("using redis at %s\n", addr)
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	store := storage.NewRedisStoreWithClient(client, "")
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		if mr != nil {
			mr.Close()
		}
		return nil, nil, err
	}

	return store, func() {
		_ = client.Close()
		if mr != nil {
			mr.Close()
		}
	}, nil
}

func generateKeys() ([]byte, []byte, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, err
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}), nil
}

func runVerifyPhase(ctx context.Context, svc *jwtauth.Service, tokens []string, ops, concurrency int) phaseStats {
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
				t0 := time.Now()
				_, err := svc.VerifyToken(ctx, tokens[r.Intn(len(tokens))])
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
	return computeStats(time.Since(start), latencies, failures)
}

type raceResult struct {
	stats      phaseStats
	winners    int64
	rejected   int64
	violations int64
}

// runReplayRace presents every token racers times at once. Any token with a winner count
// other than one, or a loser that did not see ErrTokenAlreadyUsed, is a violation.
func runReplayRace(ctx context.Context, svc *jwtauth.Service, tokens, racers int) (raceResult, error) {
	refresh := make([]string, tokens)
	for i := range refresh {
		tok, err := svc.CreateRefreshToken(ctx, map[string]any{"sub": fmt.Sprintf("u-%d", i)})
		if err != nil {
			return raceResult{}, err
		}
		refresh[i] = tok
	}

	var (
		res       raceResult
		failures  int64
		latencies = make([]time.Duration, 0, tokens*racers)
		mu        sync.Mutex
	)

	start := time.Now()
	for _, tok := range refresh {
		var (
			wg      sync.WaitGroup
			gate    = make(chan struct{})
			winners int64
		)
		for r := 0; r < racers; r++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-gate
				t0 := time.Now()
				_, err := svc.ExecuteRefreshToken(ctx, tok)
				d := time.Since(t0)
				switch {
				case err == nil:
					atomic.AddInt64(&winners, 1)
				case errors.Is(err, jwtauth.ErrTokenAlreadyUsed):
					atomic.AddInt64(&res.rejected, 1)
				default:
					atomic.AddInt64(&failures, 1)
					atomic.AddInt64(&res.violations, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}()
		}
		close(gate)
		wg.Wait()

		res.winners += winners
		if winners != 1 {
			res.violations++
		}
	}

	res.stats = computeStats(time.Since(start), latencies, failures)
	return res, nil
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
	return samples[(len(samples)-1)*p/100]
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

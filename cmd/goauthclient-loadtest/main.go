package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	promexport "github.com/MrEthical07/goAuthClient/metrics/export/prometheus"
	"github.com/MrEthical07/goAuthClient/tokenstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		rounds      = flag.Int("rounds", 20, "number of token expiry rounds")
		concurrency = flag.Int("concurrency", 256, "concurrent requests per round")
		redisAddr   = flag.String("redis-addr", "", "redis address for the token store; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gac-load", "redis key prefix")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address after the run")
		envFile     = flag.String("env-file", ".env", "optional dotenv file")
		logLevel    = flag.String("log-level", "warn", "logrus level")
	)
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		os.Exit(2)
	}
	if *rounds <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "rounds and concurrency must be > 0")
		os.Exit(2)
	}

	logger := logrus.New()
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		rdb     redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = rdb.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	api := newTokenAPI([]byte("loadtest-signing-key"), 10*time.Minute)
	defer api.Close()

	persister, err := tokenstore.NewRedisPersister(rdb, *prefix, "loadtest", time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token persister: %v\n", err)
		os.Exit(1)
	}
	store := tokenstore.New(persister, tokenstore.WithLogger(logger))

	client, err := goAuthClient.New().
		WithBaseURL(api.URL()).
		WithTokenStore(store).
		WithLogger(logger).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if _, err := client.Login(ctx, goAuthClient.LoginRequest{UsernameOrEmail: "load@example.com", Password: "load"}); err != nil {
		fmt.Fprintf(os.Stderr, "login: %v\n", err)
		os.Exit(1)
	}

	stats := make([]roundStats, 0, *rounds)
	for r := 0; r < *rounds && ctx.Err() == nil; r++ {
		api.Expire()
		stats = append(stats, runRound(ctx, client, api, *concurrency))
	}

	fmt.Println("---- results ----")
	var refreshes int64
	for i, s := range stats {
		printStats(i, s)
		refreshes += s.refreshCalls
	}
	fmt.Printf("rounds=%d refresh_calls=%d (ideal %d)\n", len(stats), refreshes, len(stats))

	snap := client.MetricsSnapshot()
	fmt.Printf("pipeline: sent=%d retried=%d joined=%d discarded=%d\n",
		snap.Counters[goAuthClient.MetricRequestSent],
		snap.Counters[goAuthClient.MetricRetrySent],
		snap.Counters[goAuthClient.MetricRefreshJoined],
		snap.Counters[goAuthClient.MetricRefreshDiscarded],
	)

	if *metricsAddr != "" {
		serveMetrics(ctx, *metricsAddr, promexport.NewExporter(client))
	}
}

type roundStats struct {
	total        time.Duration
	ops          int
	failures     int64
	refreshCalls int64
	p50          time.Duration
	p95          time.Duration
	p99          time.Duration
}

func runRound(ctx context.Context, client *goAuthClient.Client, api *tokenAPI, concurrency int) roundStats {
	var (
		wg        sync.WaitGroup
		failures  int64
		latencies = make([]time.Duration, 0, concurrency)
		mu        sync.Mutex
	)

	before := api.RefreshCalls()
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := client.NewRequest(ctx, http.MethodGet, "/api/products", nil)
			if err != nil {
				atomic.AddInt64(&failures, 1)
				return
			}
			t0 := time.Now()
			resp, err := client.Execute(req)
			d := time.Since(t0)
			if err != nil || resp.StatusCode != http.StatusOK {
				atomic.AddInt64(&failures, 1)
			}
			if resp != nil {
				_ = resp.Body.Close()
			}
			mu.Lock()
			latencies = append(latencies, d)
			mu.Unlock()
		}()
	}
	wg.Wait()

	s := computeStats(time.Since(start), latencies, failures)
	s.refreshCalls = api.RefreshCalls() - before
	return s
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) roundStats {
	if len(samples) == 0 {
		return roundStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return roundStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
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

func printStats(round int, s roundStats) {
	fmt.Printf("round %d: ops=%d failures=%d refresh_calls=%d total=%s p50=%s p95=%s p99=%s\n",
		round,
		s.ops,
		s.failures,
		s.refreshCalls,
		s.total.Round(time.Millisecond),
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func serveMetrics(ctx context.Context, addr string, exp *promexport.Exporter) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", exp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("serving metrics on %s/metrics, interrupt to exit\n", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
	}
}

// Command sesskit-loadtest seeds a session store with records and measures
// concurrent load, overwrite, and delete throughput.
//
// The backend is picked with -backend (redis, memory, or file). Flags
// default to the SESSKIT_* / REDIS_ADDR environment variables; with no
// address configured the redis backend falls back to an embedded miniredis.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"

	"github.com/sesskit/sesskit"
	"github.com/sesskit/sesskit/filestore"
	"github.com/sesskit/sesskit/memstore"
	"github.com/sesskit/sesskit/redistore"
)

type config struct {
	Backend   string `env:"SESSKIT_BACKEND" envDefault:"redis"`
	RedisAddr string `env:"REDIS_ADDR"`
	FileDir   string `env:"SESSKIT_FILE_DIR"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("parse environment", "error", err)
		os.Exit(1)
	}

	var (
		backend     = flag.String("backend", cfg.Backend, "store backend: redis, memory, or file")
		redisAddr   = flag.String("redis-addr", cfg.RedisAddr, "redis address; if empty, an embedded miniredis is used")
		fileDir     = flag.String("dir", cfg.FileDir, "directory for the file backend; if empty, a temp dir is used")
		sessions    = flag.Int("sessions", 50000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per measured phase")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	store, cleanup, err := openStore(logger, *backend, *redisAddr, *fileDir)
	if err != nil {
		logger.Error("open store", "backend", *backend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx := context.Background()

	ids := make([]string, *sessions)
	startSeed := time.Now()
	for i := 0; i < *sessions; i++ {
		ids[i] = fmt.Sprintf("sess-%d", i)
		if err := store.Save(ctx, buildRecord(ids[i], i)); err != nil {
			logger.Error("seed save", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("seeded sessions", "count", *sessions, "took", time.Since(startSeed).Round(time.Millisecond))

	loadStats := runPhase(*ops, *concurrency, func(r *rand.Rand, i int) error {
		_, err := store.Load(ctx, ids[r.Intn(len(ids))])
		return err
	})
	saveStats := runPhase(*ops, *concurrency, func(r *rand.Rand, i int) error {
		return store.Save(ctx, buildRecord(ids[r.Intn(len(ids))], i))
	})
	deleteStats := runPhase(*ops, *concurrency, func(r *rand.Rand, i int) error {
		return store.Delete(ctx, ids[r.Intn(len(ids))])
	})

	fmt.Println("---- results ----")
	printStats("load", loadStats)
	printStats("save", saveStats)
	printStats("delete", deleteStats)
}

func openStore(logger *slog.Logger, backend, redisAddr, fileDir string) (sesskit.Store, func(), error) {
	switch backend {
	case "redis":
		if redisAddr == "" {
			mr, err := miniredis.Run()
			if err != nil {
				return nil, nil, fmt.Errorf("start miniredis: %w", err)
			}
			client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
			logger.Info("using embedded miniredis", "addr", mr.Addr())
			return redistore.New(client), func() {
				_ = client.Close()
				mr.Close()
			}, nil
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{redisAddr}})
		logger.Info("using redis", "addr", redisAddr)
		return redistore.New(client), func() { _ = client.Close() }, nil

	case "memory":
		logger.Info("using in-memory store")
		return memstore.New(), func() {}, nil

	case "file":
		cleanup := func() {}
		if fileDir == "" {
			dir, err := os.MkdirTemp("", "sesskit-loadtest-*")
			if err != nil {
				return nil, nil, fmt.Errorf("create temp dir: %w", err)
			}
			fileDir = dir
			cleanup = func() { _ = os.RemoveAll(dir) }
		}
		store, err := filestore.New(fileDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file store", "dir", fileDir)
		return store, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func buildRecord(id string, n int) *sesskit.Record {
	rec := sesskit.NewRecord(id, time.Now().Add(24*time.Hour))
	rec.Data["user_id"] = fmt.Sprintf("u-%d", n%1000)
	rec.Data["visits"] = int64(n)
	rec.Data["admin"] = n%97 == 0
	rec.Data["theme"] = "dark"
	return rec
}

func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
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

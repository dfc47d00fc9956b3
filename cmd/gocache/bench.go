package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gocache/internal/cache"
	promcache "gocache/internal/metrics/prometheus"
)

func newBenchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a concurrent get/put/remove load against the cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBench(ctx, a, cmd)
		},
	}

	f := cmd.Flags()
	f.Int("workers", 0, "number of concurrent workers")
	f.Int("ops", 0, "total operations across all workers")
	f.Int("key-space", 0, "number of distinct keys")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address and wait for a signal after the run")
	return cmd
}

type benchStats struct {
	gets, hits, puts, removes atomic.Int64
}

func runBench(ctx context.Context, a *app, cmd *cobra.Command) error {
	reg := prometheus.NewRegistry()

	opts, err := a.cfg.Cache.Options()
	if err != nil {
		return err
	}
	opts = append(opts,
		cache.WithLogger(a.log),
		cache.WithMetrics(promcache.NewCacheMetrics(reg, "bench")),
	)

	c, err := cache.New[string, int](a.cfg.Cache.Capacity, opts...)
	if err != nil {
		return err
	}
	defer c.Shutdown()

	var srv *http.Server
	if addr := a.cfg.Metrics.Addr; addr != "" {
		srv = &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server failed", "error", err)
			}
		}()
		a.log.Info("serving metrics", "addr", addr)
	}

	b := a.cfg.Bench
	a.log.Info("bench starting",
		"strategy", c.Strategy(),
		"capacity", c.Capacity(),
		"workers", b.Workers,
		"ops", b.Ops,
		"key_space", b.KeySpace)

	var stats benchStats
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	perWorker := b.Ops / b.Workers
	for w := 0; w < b.Workers; w++ {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(w), uint64(start.UnixNano())))
			for i := 0; i < perWorker; i++ {
				if i%1024 == 0 && gctx.Err() != nil {
					return gctx.Err()
				}
				key := "k" + strconv.Itoa(rng.IntN(b.KeySpace))
				switch p := rng.IntN(100); {
				case p < 80:
					stats.gets.Add(1)
					if _, ok := c.Get(key); ok {
						stats.hits.Add(1)
					}
				case p < 95:
					stats.puts.Add(1)
					c.Put(key, i)
				default:
					stats.removes.Add(1)
					c.Remove(key)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	if c.Strategy() == cache.Threaded {
		if err := waitWithinCapacity(ctx, c); err != nil {
			a.log.Warn("cache did not settle", "error", err)
		}
	}

	total := stats.gets.Load() + stats.puts.Load() + stats.removes.Load()
	hitRatio := 0.0
	if n := stats.gets.Load(); n > 0 {
		hitRatio = float64(stats.hits.Load()) / float64(n)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "strategy:   %s\n", c.Strategy())
	fmt.Fprintf(out, "operations: %d in %s (%.0f ops/s)\n", total, elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds())
	fmt.Fprintf(out, "gets:       %d (hit ratio %.2f)\n", stats.gets.Load(), hitRatio)
	fmt.Fprintf(out, "puts:       %d\n", stats.puts.Load())
	fmt.Fprintf(out, "removes:    %d\n", stats.removes.Load())
	fmt.Fprintf(out, "entries:    %d / %d\n", c.Len(), c.Capacity())

	if srv != nil {
		a.log.Info("bench done; waiting for signal before stopping metrics server")
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
	return nil
}

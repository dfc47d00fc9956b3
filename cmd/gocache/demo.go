package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gocache/internal/cache"
)

const demoCapacity = 3

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through LRU eviction with the configured strategy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Signal-aware context is the root of ownership for long-lived background work.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDemo(ctx, a, cmd)
		},
	}
}

func runDemo(ctx context.Context, a *app, cmd *cobra.Command) error {
	opts, err := a.cfg.Cache.Options()
	if err != nil {
		return err
	}
	opts = append(opts, cache.WithLogger(a.log))

	c, err := cache.New[string, int](demoCapacity, opts...)
	if err != nil {
		return err
	}
	// Shutdown is idempotent; safe to call in defer.
	defer c.Shutdown()

	a.log.Info("demo starting",
		"strategy", c.Strategy(),
		"capacity", c.Capacity(),
		"cleanup_delay", a.cfg.Cache.CleanupDelay)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	// Touch "a" so "b" becomes least-recently-used.
	if v, ok := c.Get("a"); ok {
		a.log.Info("GET a (touches a -> MRU)", "value", v)
	}

	// Insert "d" => cache overflows and evicts LRU (expected: "b").
	c.Put("d", 4)
	a.log.Info("after PUT d", "len", c.Len(), "keys", c.Keys())

	if c.Strategy() == cache.Threaded {
		if err := waitWithinCapacity(ctx, c); err != nil {
			return err
		}
		a.log.Info("after trim pass", "len", c.Len())
	}

	if !c.ContainsKey("b") {
		a.log.Info("b is missing (evicted as LRU)")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "keys (MRU->LRU): %v\n", c.Keys())
	return nil
}

// waitWithinCapacity polls until a background trim brought c back within
// capacity, the context ends, or one second passes.
func waitWithinCapacity[K comparable, V any](ctx context.Context, c *cache.Cache[K, V]) error {
	deadline := time.NewTimer(time.Second)
	defer deadline.Stop()
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()

	for c.Len() > c.Capacity() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("cache still holds %d entries, capacity %d", c.Len(), c.Capacity())
		case <-tick.C:
		}
	}
	return nil
}

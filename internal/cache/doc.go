// Package cache implements a single-process, capacity-bounded LRU cache.
//
// Two eviction strategies sit behind the same [Cache] facade and are picked
// at construction time:
//
//   - [Locking]: map index + doubly-linked recency list behind a sync.RWMutex.
//     Put evicts synchronously, so Len() <= capacity holds whenever Put returns.
//     Get only promotes an entry when it can take the lock without waiting;
//     under contention the value is returned but its recency is left as is.
//   - [Threaded]: lock-free store with per-entry atomic recency markers.
//     Put never waits for eviction; a background [Scheduler] runs a coalesced
//     trim pass that sorts a snapshot by recency and drops the oldest entries.
//     Capacity is a soft bound between a Put and the next pass.
//
// Ownership model:
// a Cache that creates its own [Worker] stops it in Shutdown. A Scheduler
// passed in with [WithScheduler] belongs to the caller and is never stopped.
//
//	c, err := cache.New[string, []byte](1024, cache.WithStrategy(cache.Threaded))
//	if err != nil {
//		return err
//	}
//	defer c.Shutdown()
package cache

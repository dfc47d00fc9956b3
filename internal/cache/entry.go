package cache

import (
	"cmp"
	"sync/atomic"
)

// Entry is a point-in-time copy of a cached key/value pair.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// clock hands out recency markers and insertion sequence numbers.
// Both strictly increase per cache and are never reused.
type clock struct {
	tick atomic.Uint64
	seq  atomic.Uint64
}

func (c *clock) now() uint64     { return c.tick.Add(1) }
func (c *clock) nextSeq() uint64 { return c.seq.Add(1) }

// stamp orders entries for eviction: lower recency first, lower insertion
// sequence breaks ties.
type stamp struct {
	recency uint64
	seq     uint64
}

func compareStamps(a, b stamp) int {
	if c := cmp.Compare(a.recency, b.recency); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

// store is the contract both eviction strategies implement.
// entries returns a snapshot ordered most recently used first.
type store[K comparable, V any] interface {
	get(key K) (V, bool)
	put(key K, value V) (V, bool)
	remove(key K) (V, bool)
	clear()
	len() int
	containsKey(key K) bool
	entries() []Entry[K, V]
}

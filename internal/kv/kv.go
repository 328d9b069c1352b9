// Package kv provides the two key-value partitions backing all tabvault
// persistence: a small, quota-limited "sync" partition and a larger
// device-local "local" partition. Every logical record type lives under a
// fixed key (or key family) within exactly one partition; the store layer
// owns the routing.
package kv

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Area names a partition namespace.
type Area string

const (
	AreaSync  Area = "sync"
	AreaLocal Area = "local"
)

// Change describes a completed mutation: which partition changed and which
// keys were touched. Emitted after every successful Set, Remove, and Clear.
type Change struct {
	Area Area
	Keys []string
}

// Partition is the asynchronous key-value surface shared by both
// partitions. Get returns only the keys that exist; a missing key is not
// an error. Set overwrites existing values. Remove of an absent key is a
// no-op. Implementations must be safe for concurrent use.
type Partition interface {
	// Area identifies which namespace this partition serves.
	Area() Area

	// Get retrieves the stored values for the given keys. Keys with no
	// stored value are omitted from the result.
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)

	// Set stores every item in the map, overwriting existing values.
	Set(ctx context.Context, items map[string]json.RawMessage) error

	// Remove deletes the given keys. Absent keys are ignored.
	Remove(ctx context.Context, keys ...string) error

	// Clear deletes every key in the partition.
	Clear(ctx context.Context) error

	// Keys lists every key currently stored. Order is not guaranteed.
	Keys(ctx context.Context) ([]string, error)

	// Watch registers a change listener. The returned function
	// unregisters it.
	Watch(fn func(Change)) (cancel func())

	// Close releases the underlying storage engine.
	Close() error
}

// notifier implements listener fan-out for Partition implementations.
// Callbacks run synchronously on the mutating goroutine, in registration
// order.
type notifier struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Change)
}

func (n *notifier) watch(fn func(Change)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listeners == nil {
		n.listeners = make(map[int]func(Change))
	}
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

func (n *notifier) emit(c Change) {
	n.mu.Lock()
	fns := make([]func(Change), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// nowMillis returns the current time as Unix milliseconds.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// mapKeys returns the keys of an item map, for change notifications.
func mapKeys(items map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys
}

package kv

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryPartition is an in-memory Partition for tests. It honors the same
// contract as the disk-backed partitions and adds injectable failures so
// callers can exercise their degraded-read and failed-write paths.
type MemoryPartition struct {
	area Area

	mu   sync.RWMutex
	data map[string][]byte

	// ReadErr, when set, makes every Get/Keys call fail with it.
	ReadErr error
	// WriteErr, when set, makes every Set/Remove/Clear call fail with it.
	WriteErr error

	notifier
}

// NewMemoryPartition creates an empty in-memory partition for the given
// area.
func NewMemoryPartition(area Area) *MemoryPartition {
	return &MemoryPartition{
		area: area,
		data: make(map[string][]byte),
	}
}

// Area identifies the namespace this partition was created for.
func (p *MemoryPartition) Area() Area { return p.area }

// Get retrieves the stored values for the given keys.
func (p *MemoryPartition) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.ReadErr != nil {
		return nil, p.ReadErr
	}

	result := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		value, exists := p.data[key]
		if !exists {
			continue
		}
		// Return a copy to prevent external modification
		cp := make([]byte, len(value))
		copy(cp, value)
		result[key] = json.RawMessage(cp)
	}
	return result, nil
}

// Set stores every item, overwriting existing values.
func (p *MemoryPartition) Set(ctx context.Context, items map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	p.mu.Lock()
	if p.WriteErr != nil {
		p.mu.Unlock()
		return p.WriteErr
	}
	for key, value := range items {
		cp := make([]byte, len(value))
		copy(cp, value)
		p.data[key] = cp
	}
	p.mu.Unlock()

	p.emit(Change{Area: p.area, Keys: mapKeys(items)})
	return nil
}

// Remove deletes the given keys. Absent keys are ignored.
func (p *MemoryPartition) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	p.mu.Lock()
	if p.WriteErr != nil {
		p.mu.Unlock()
		return p.WriteErr
	}
	for _, key := range keys {
		delete(p.data, key)
	}
	p.mu.Unlock()

	p.emit(Change{Area: p.area, Keys: keys})
	return nil
}

// Clear deletes every key in the partition.
func (p *MemoryPartition) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	if p.WriteErr != nil {
		p.mu.Unlock()
		return p.WriteErr
	}
	keys := make([]string, 0, len(p.data))
	for key := range p.data {
		keys = append(keys, key)
	}
	p.data = make(map[string][]byte)
	p.mu.Unlock()

	p.emit(Change{Area: p.area, Keys: keys})
	return nil
}

// Keys lists every key currently stored.
func (p *MemoryPartition) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.ReadErr != nil {
		return nil, p.ReadErr
	}

	keys := make([]string, 0, len(p.data))
	for key := range p.data {
		keys = append(keys, key)
	}
	return keys, nil
}

// Watch registers a change listener.
func (p *MemoryPartition) Watch(fn func(Change)) func() {
	return p.watch(fn)
}

// Close is a no-op for the in-memory partition.
func (p *MemoryPartition) Close() error { return nil }

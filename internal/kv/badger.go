package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPartition is the "local" partition: larger capacity, device-local,
// no per-item ceiling. Backed by a Badger key-value store.
type BadgerPartition struct {
	db *badger.DB
	notifier
}

// OpenBadger opens (creating if needed) the local partition at
// baseDir/local.
func OpenBadger(baseDir string) (*BadgerPartition, error) {
	opts := badger.DefaultOptions(filepath.Join(baseDir, "local")).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open local partition: %w", err)
	}
	return &BadgerPartition{db: db}, nil
}

// Area identifies this partition as the local namespace.
func (p *BadgerPartition) Area() Area { return AreaLocal }

// Get retrieves the stored values for the given keys.
func (p *BadgerPartition) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make(map[string]json.RawMessage, len(keys))
	err := p.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return fmt.Errorf("local get %q: %w", key, err)
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("local get %q: %w", key, err)
			}
			result[key] = json.RawMessage(value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Set stores every item, overwriting existing values.
func (p *BadgerPartition) Set(ctx context.Context, items map[string]json.RawMessage) error {
	if len(items) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := p.db.Update(func(txn *badger.Txn) error {
		for key, value := range items {
			if err := txn.Set([]byte(key), []byte(value)); err != nil {
				return fmt.Errorf("local set %q: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.emit(Change{Area: AreaLocal, Keys: mapKeys(items)})
	return nil
}

// Remove deletes the given keys. Absent keys are ignored.
func (p *BadgerPartition) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := p.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil && err != badger.ErrKeyNotFound {
				return fmt.Errorf("local remove %q: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.emit(Change{Area: AreaLocal, Keys: keys})
	return nil
}

// Clear deletes every key in the partition.
func (p *BadgerPartition) Clear(ctx context.Context) error {
	keys, err := p.Keys(ctx)
	if err != nil {
		return err
	}
	if err := p.db.DropAll(); err != nil {
		return fmt.Errorf("local clear: %w", err)
	}
	p.emit(Change{Area: AreaLocal, Keys: keys})
	return nil
}

// Keys lists every key currently stored.
func (p *BadgerPartition) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	err := p.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("local keys: %w", err)
	}
	return keys, nil
}

// Watch registers a change listener.
func (p *BadgerPartition) Watch(fn func(Change)) func() {
	return p.watch(fn)
}

// Close releases the database handle.
func (p *BadgerPartition) Close() error {
	return p.db.Close()
}

package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

// BboltStore is the alternative storage engine: one bbolt database holding
// one bucket per collection, records msgpack-encoded. The external contract
// is identical to the JSON file backend.
type BboltStore struct {
	db *bbolt.DB
}

func OpenBbolt(path string) (*BboltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}
	return &BboltStore{db: db}, nil
}

func (s *BboltStore) Close() error {
	return s.db.Close()
}

// BboltCollection keeps whole-collection semantics on top of a bucket: Load
// reads every record, Save drops and refills the bucket. Records are keyed
// by the provided key func so iteration order is stable across restarts.
type BboltCollection[T any] struct {
	db     *bbolt.DB
	bucket []byte
	key    func(record T) []byte
	mu     sync.Mutex
}

func NewBboltCollection[T any](store *BboltStore, name string, key func(record T) []byte) (*BboltCollection[T], error) {
	bucket := []byte(name)
	err := store.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return &BboltCollection[T]{db: store.db, bucket: bucket, key: key}, nil
}

func (c *BboltCollection[T]) Load() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c *BboltCollection[T]) Save(records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(records)
}

func (c *BboltCollection[T]) Update(fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return err
	}
	records, err = fn(records)
	if err != nil {
		return err
	}
	return c.save(records)
}

func (c *BboltCollection[T]) load() ([]T, error) {
	records := []T{}
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(c.bucket)
		return b.ForEach(func(k, v []byte) error {
			var record T
			if err := msgpack.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (c *BboltCollection[T]) save(records []T) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(c.bucket); err != nil {
			return fmt.Errorf("failed to clear bucket: %w", err)
		}
		b, err := tx.CreateBucket(c.bucket)
		if err != nil {
			return fmt.Errorf("failed to recreate bucket: %w", err)
		}

		for _, record := range records {
			data, err := msgpack.Marshal(record)
			if err != nil {
				return fmt.Errorf("failed to marshal record: %w", err)
			}
			if err := b.Put(c.key(record), data); err != nil {
				return fmt.Errorf("failed to put record: %w", err)
			}
		}
		return nil
	})
}

// MIT License
//
// Copyright (c) 2025-2026 GrainLink Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"
)

const (
	boltFileMode   os.FileMode = 0o600
	boltDirMode    os.FileMode = 0o700
	boltBucketName             = "links"
)

var (
	boltTimeout        = 5 * time.Second
	defaultBoltOptions = &bbolt.Options{Timeout: boltTimeout, NoGrowSync: true}
)

// boltRecord is the on-disk envelope for one record. The ETag rides next to
// the payload so conditional writes can be checked inside a single write
// transaction.
type boltRecord struct {
	ETag string `json:"etag"`
	Data []byte `json:"data"`
}

// BoltStore implements Store using go.etcd.io/bbolt for durable persistence.
//
// Concurrency:
//   - bbolt provides single-writer/multi-reader semantics, which satisfies the
//     Store contract for concurrent access across distinct keys. We only guard
//     the close state to prevent operations once the store is shut down.
//
// Durability:
//   - Every Write commits a transaction before returning, so an acknowledged
//     write survives process restart.
type BoltStore struct {
	db     *bbolt.DB
	bucket []byte
	path   string
	closed atomic.Bool
}

// ensure BoltStore implements the Store interface
var _ Store = (*BoltStore)(nil)

// NewBoltStore opens (or creates) a BoltDB-backed Store at the given path.
// Parent directories are created as needed. The database is configured with a
// short open timeout to avoid blocking on locked files.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), boltDirMode); err != nil {
		return nil, fmt.Errorf("creating boltdb directory: %w", err)
	}

	optionsCopy := *defaultBoltOptions
	db, err := bbolt.Open(path, boltFileMode, &optionsCopy)
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	bucket := []byte(boltBucketName)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucket)
		return e
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing boltdb bucket: %w", err)
	}

	return &BoltStore{db: db, bucket: bucket, path: path}, nil
}

// Ping implements Store.
func (s *BoltStore) Ping(ctx context.Context) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return fmt.Errorf("bucket %q missing", s.bucket)
		}
		return nil
	})
}

// Read implements Store.
func (s *BoltStore) Read(ctx context.Context, key string) (*Record, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record *Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get([]byte(key))
		if raw == nil {
			return ErrKeyNotFound
		}
		var envelope boltRecord
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return fmt.Errorf("decoding record %q: %w", key, err)
		}
		record = &Record{Data: envelope.Data, ETag: envelope.ETag}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Write implements Store.
func (s *BoltStore) Write(ctx context.Context, key string, data []byte, expectedETag string) (string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	etag := uuid.NewString()
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if expectedETag != "" {
			raw := bucket.Get([]byte(key))
			if raw == nil {
				return ErrETagMismatch
			}
			var current boltRecord
			if err := json.Unmarshal(raw, &current); err != nil {
				return fmt.Errorf("decoding record %q: %w", key, err)
			}
			if current.ETag != expectedETag {
				return ErrETagMismatch
			}
		}

		raw, err := json.Marshal(boltRecord{ETag: etag, Data: data})
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), raw)
	})
	if err != nil {
		return "", err
	}
	return etag, nil
}

// Delete implements Store.
func (s *BoltStore) Delete(ctx context.Context, key string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// Close closes the underlying database. Subsequent operations fail with
// ErrStoreClosed.
func (s *BoltStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the backing database file.
func (s *BoltStore) Path() string {
	return s.path
}

func (s *BoltStore) ensureOpen() error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return nil
}

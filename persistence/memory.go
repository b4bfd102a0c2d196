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
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a process-lifetime Store backed by a map.
//
// It exists for tests and local experimentation only: all records are lost on
// process exit with no warning to callers, so it must never be the default
// backend of a production deployment.
type MemoryStore struct {
	mu    sync.RWMutex
	cache map[string]*Record
}

// ensure MemoryStore implements the Store interface
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: map[string]*Record{},
	}
}

// Ping implements Store. The memory store is always reachable.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Read implements Store.
func (s *MemoryStore) Read(ctx context.Context, key string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	record, ok := s.cache[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrKeyNotFound
	}

	// hand out a copy so callers cannot mutate the cached record
	data := make([]byte, len(record.Data))
	copy(data, record.Data)
	return &Record{Data: data, ETag: record.ETag}, nil
}

// Write implements Store.
func (s *MemoryStore) Write(ctx context.Context, key string, data []byte, expectedETag string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if expectedETag != "" {
		current, ok := s.cache[key]
		if !ok || current.ETag != expectedETag {
			return "", ErrETagMismatch
		}
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	etag := uuid.NewString()
	s.cache[key] = &Record{Data: stored, ETag: etag}
	return etag, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of records currently stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	l := len(s.cache)
	s.mu.RUnlock()
	return l
}

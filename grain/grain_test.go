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

package grain

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/grainlink/grainlink/persistence"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingStore wraps a Store and counts Read invocations.
type countingStore struct {
	persistence.Store
	reads atomic.Int64
}

func (c *countingStore) Read(ctx context.Context, key string) (*persistence.Record, error) {
	c.reads.Inc()
	return c.Store.Read(ctx, key)
}

// slowStore wraps a Store and delays writes against the configured keys.
type slowStore struct {
	persistence.Store
	delay time.Duration

	mu   sync.Mutex
	keys map[string]bool
}

func newSlowStore(inner persistence.Store, delay time.Duration, keys ...string) *slowStore {
	slowed := make(map[string]bool, len(keys))
	for _, key := range keys {
		slowed[key] = true
	}
	return &slowStore{
		Store: inner,
		delay: delay,
		keys:  slowed,
	}
}

func (s *slowStore) slowed(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys) == 0 || s.keys[key]
}

func (s *slowStore) Write(ctx context.Context, key string, data []byte, expectedETag string) (string, error) {
	if s.slowed(key) {
		time.Sleep(s.delay)
	}
	return s.Store.Write(ctx, key, data, expectedETag)
}

// stallingStore blocks writes until the caller's context expires once armed.
type stallingStore struct {
	persistence.Store
	stalled atomic.Bool
}

func (s *stallingStore) Write(ctx context.Context, key string, data []byte, expectedETag string) (string, error) {
	if s.stalled.Load() {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.Store.Write(ctx, key, data, expectedETag)
}

func newTestDirectory(t *testing.T, store persistence.Store, opts ...Option) *Directory {
	t.Helper()
	directory := NewDirectory(store, opts...)
	ctx := context.Background()
	if err := directory.Start(ctx); err != nil {
		t.Fatalf("failed to start directory: %v", err)
	}
	t.Cleanup(func() {
		_ = directory.Stop(context.Background())
	})
	return directory
}

func mustKey(t *testing.T, value string) *Key {
	t.Helper()
	key, err := NewKey(value)
	if err != nil {
		t.Fatalf("failed to build key %q: %v", value, err)
	}
	return key
}
